package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, documentID string) (*Patient, error)
	Exists(ctx context.Context, documentID string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// Search matches term case-insensitively as a substring of first or
	// last name, or as a substring of the document id (union of the three).
	Search(ctx context.Context, term string) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, documentID string) error

	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]*Patient, error)
}
