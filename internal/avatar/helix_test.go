package avatar

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"
)

func Test_helixLookup(t *testing.T) {
	tests := []struct {
		name       string
		res        *helix.UsersResponse
		err        error
		wantUrl    string
		wantErrStr string
	}{
		{
			"profile image URL is returned",
			usersResponse(http.StatusOK, helix.User{Login: "bigjoe", ProfileImageURL: "https://cdn/bigjoe.png"}),
			nil,
			"https://cdn/bigjoe.png",
			"",
		},
		{
			"unknown user yields an empty result",
			usersResponse(http.StatusOK),
			nil,
			"",
			"",
		},
		{
			"request error is returned",
			nil,
			errors.New("mock network error"),
			"",
			"mock network error",
		},
		{
			"non-200 response is an error",
			usersResponse(http.StatusUnauthorized),
			nil,
			"",
			"got response 401",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsersGetter{res: tt.res, err: tt.err}
			l := NewHelixLookup(users)
			url, err := l.LookupAvatar(context.Background(), "bigjoe")
			if tt.wantErrStr != "" {
				assert.ErrorContains(t, err, tt.wantErrStr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantUrl, url)
			assert.Equal(t, []string{"bigjoe"}, users.gotParams.Logins)
		})
	}
}

func usersResponse(status int, users ...helix.User) *helix.UsersResponse {
	r := &helix.UsersResponse{}
	r.StatusCode = status
	r.Data.Users = users
	return r
}

type fakeUsersGetter struct {
	res       *helix.UsersResponse
	err       error
	gotParams *helix.UsersParams
}

func (f *fakeUsersGetter) GetUsers(params *helix.UsersParams) (*helix.UsersResponse, error) {
	f.gotParams = params
	return f.res, f.err
}
