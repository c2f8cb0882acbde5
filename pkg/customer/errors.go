package customer

import "errors"

var (
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrMissingReferenceID    = errors.New("customer reference ID is required")
	ErrFailedToSaveCustomer  = errors.New("failed to save customer")
	ErrFailedToFetchCustomer = errors.New("failed to fetch customer")
)
