package domain

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User 用户，PasswordHash 为 bcrypt 摘要，明文密码不落库
type User struct {
	ID           primitive.ObjectID
	Username     string
	Email        string
	PasswordHash string
}

// NewUser 创建用户并对密码做摘要
func NewUser(username, email, password string) (*User, error) {
	u := &User{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email)}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate 校验用户名与邮箱
func (u *User) Validate() error {
	switch {
	case u.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalidUser)
	case !strings.Contains(u.Email, "@"):
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidUser, u.Email)
	}
	return nil
}

// SetPassword 以 bcrypt 摘要替换当前密码
func (u *User) SetPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidUser)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验明文密码
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
