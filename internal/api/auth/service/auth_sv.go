package authService

import (
	"PoseCoach/internal/api/auth"
	"PoseCoach/internal/entity"
	contextPkg "PoseCoach/pkg/context"
	jwtPkg "PoseCoach/pkg/jwt"
	"context"
	"github.com/sirupsen/logrus"
	"time"
)

// Login checks the credentials and issues a one hour access token. An unknown
// email is reported as not found, a wrong password as invalid credentials.
func (s *authDomainImpl) Login(c context.Context, req auth.LoginUserRequest) (auth.LoginUserResponse, error) {
	requestID := contextPkg.GetRequestID(c)
	repo, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create repository client")
		return auth.LoginUserResponse{}, err
	}

	user, err := repo.Users.GetByEmail(c, req.Email)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to get user by email")
		return auth.LoginUserResponse{}, err
	}

	if err := s.bcryptUtils.ComparePassword(user.Password, req.Password); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Password comparison failed")
		return auth.LoginUserResponse{}, auth.ErrInvalidEmailOrPassword
	}

	token, expiresIn, err := issueAccessToken(user)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to sign token")
		return auth.LoginUserResponse{}, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Info("Token created")

	return auth.LoginUserResponse{
		AccessToken:      token,
		ExpiresInMinutes: expiresIn,
	}, nil
}

// issueAccessToken signs a one hour token for user and reports the minutes
// left until it expires.
func issueAccessToken(user entity.User) (string, float64, error) {
	token, expired, err := jwtPkg.Sign(MakeUserData(user), accessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, time.Until(time.Unix(expired, 0)).Minutes(), nil
}
