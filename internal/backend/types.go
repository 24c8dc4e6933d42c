package backend

import (
	"context"
	"strconv"
	"strings"
)

// Student is a marketplace user enrolled through an academic institution.
type Student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Major    string `json:"major,omitempty"`
	GradYear int    `json:"grad_year,omitempty"`
}

// Partner is a corporate account posting projects on the marketplace.
type Partner struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
	Active   bool   `json:"active"`
}

// Transaction is a completed or in-flight marketplace engagement between a
// student and a corporate party.
type Transaction struct {
	ID        string  `json:"id"`
	StudentID string  `json:"student_id"`
	PartnerID string  `json:"partner_id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// StudentQuery narrows a student listing. EmailDomain is applied at the
// query layer, not post-hoc, so cross-institution rows never leave the
// backend.
type StudentQuery struct {
	EmailDomain string
	Search      string
	Limit       int
}

// API is the surface the reporting layer consumes. *Client implements it;
// tests substitute fakes.
type API interface {
	Students(ctx context.Context, q StudentQuery) ([]Student, error)
	Partners(ctx context.Context) ([]Partner, error)
	Transactions(ctx context.Context, partnerIDs []string) ([]Transaction, error)
}

type studentsResponse struct {
	Students []Student `json:"students"`
}

type partnersResponse struct {
	Partners []Partner `json:"partners"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

// Students lists student users, optionally restricted to one email domain.
func (c *Client) Students(ctx context.Context, q StudentQuery) ([]Student, error) {
	query := map[string]string{"role": "student"}
	if q.EmailDomain != "" {
		query["email_domain"] = q.EmailDomain
	}
	if q.Search != "" {
		query["q"] = q.Search
	}
	if q.Limit > 0 {
		query["limit"] = strconv.Itoa(q.Limit)
	}
	var out studentsResponse
	if err := c.get(ctx, "/v1/users", query, &out); err != nil {
		return nil, err
	}
	return out.Students, nil
}

// Partners lists corporate partner accounts.
func (c *Client) Partners(ctx context.Context) ([]Partner, error) {
	var out partnersResponse
	if err := c.get(ctx, "/v1/partners", nil, &out); err != nil {
		return nil, err
	}
	return out.Partners, nil
}

// Transactions lists engagements, optionally restricted to partner ids.
func (c *Client) Transactions(ctx context.Context, partnerIDs []string) ([]Transaction, error) {
	query := map[string]string{}
	if len(partnerIDs) > 0 {
		query["partner_ids"] = strings.Join(partnerIDs, ",")
	}
	var out transactionsResponse
	if err := c.get(ctx, "/v1/transactions", query, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}
