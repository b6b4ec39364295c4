package worldstate

import "housingmarket/internal/repo"

// Repositories bundles every entity arena the simulation threads through
// its components, replacing the "implicit root module holding
// repositories" the source used as ambient state.
type Repositories struct {
	Persons    *repo.Repository[Person]
	Families   *repo.Repository[Family]
	Households *repo.Repository[Household]
	Dwellings  *repo.Repository[Dwelling]
}

// NewRepositories builds an empty set of repositories.
func NewRepositories() *Repositories {
	return &Repositories{
		Persons:    repo.New[Person](),
		Families:   repo.New[Family](),
		Households: repo.New[Household](),
		Dwellings:  repo.New[Dwelling](),
	}
}
