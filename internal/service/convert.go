package service

import (
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/present"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPIExpense(e *models.Expense) api.Expense {
	return api.Expense{
		ID:           e.ID,
		GroupID:      e.GroupID,
		Description:  e.Description,
		Category:     e.Category,
		Amount:       e.Amount.StringFixed(2),
		PaidBy:       e.PaidBy,
		Participants: e.Participants,
		SplitType:    string(e.SplitType),
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		IsSettled:    e.IsSettled,
	}
}

func toAPIBalances(b *ledger.Balances) *api.BalancesResponse {
	out := &api.BalancesResponse{
		Balances:       make([]api.Balance, len(b.Balances)),
		TotalOwedToYou: b.OwedToYou.StringFixed(2),
		TotalYouOwe:    b.YouOwe.StringFixed(2),
	}
	for i, nb := range b.Balances {
		out.Balances[i] = api.Balance{
			UserID:    nb.CounterpartyID,
			Name:      nb.Name,
			Amount:    nb.Amount.StringFixed(2),
			Direction: string(nb.Direction),
		}
	}
	return out
}

func toAPISettlement(s *models.Settlement) api.Settlement {
	return api.Settlement{
		ID:         s.ID,
		UserID:     s.UserID,
		ExpenseIDs: s.ExpenseIDs,
		CreatedAt:  s.CreatedAt,
	}
}

func toAPISummary(s present.ExpenseSummary) api.ExpenseSummary {
	return api.ExpenseSummary{
		ID:          s.ID,
		Description: s.Description,
		Category:    s.Category,
		Amount:      s.Amount,
		Date:        s.Date,
		PaidBy:      s.PaidBy,
		IsSettled:   s.IsSettled,
	}
}

func toAPIGroup(g *models.Group) api.Group {
	return api.Group{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Members:       g.Members,
		TotalExpenses: g.TotalExpenses.StringFixed(2),
		CreatedBy:     g.CreatedBy,
		CreatedAt:     g.CreatedAt,
	}
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
