package handlers

import "github.com/geocoder89/medid/internal/domain/account"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest carries the common fields plus the role-scoped attributes flattened
// into the same JSON object. Field rules are enforced by the account package so every
// violation is reported at once.
type RegisterRequest struct {
	Email     string       `json:"email"`
	Password  string       `json:"password"`
	Role      account.Role `json:"role"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Phone     *string      `json:"phone"`
	account.RoleAttributes
}

func (r RegisterRequest) NewAccount() account.NewAccount {
	return account.NewAccount{
		Email:      r.Email,
		Password:   r.Password,
		Role:       r.Role,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Phone:      r.Phone,
		Attributes: r.RoleAttributes,
	}
}

type CreateAccountRequest struct {
	RegisterRequest
	IsActive *bool `json:"isActive"`
}

func (r CreateAccountRequest) NewAccount() account.NewAccount {
	in := r.RegisterRequest.NewAccount()
	in.IsActive = r.IsActive
	return in
}

type sessionResponse struct {
	User  account.View `json:"user"`
	Token string       `json:"token"`
}

type userResponse struct {
	User any `json:"user"`
}

type listResponse struct {
	Users      []account.Summary  `json:"users"`
	Pagination account.Pagination `json:"pagination"`
}
