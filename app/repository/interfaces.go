package repository

import "github.com/learnhubhq/learnhub/app/models"

// UserRepository reads user records. This service never writes users beyond
// the provider customer link (owned by the billing repository); account
// lifecycle belongs to the identity collaborator.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByStripeCustomerID(customerID string) (*models.User, error)
}
