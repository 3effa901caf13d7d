package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/budget-analytics/internal/budget"
	"github.com/frahmantamala/budget-analytics/internal/category"
	"github.com/frahmantamala/budget-analytics/internal/core/common/date"
	"github.com/frahmantamala/budget-analytics/internal/expense"
	"github.com/frahmantamala/budget-analytics/internal/notification"
	"github.com/frahmantamala/budget-analytics/internal/user"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const seedHistoryDays = 120

var (
	clearData    bool
	seedEmail    string
	seedName     string
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Create a demo user with monthly budgets and four months of expenses for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lg, err := bootstrap()
		if err != nil {
			return err
		}

		deps, err := initializeDependencies(cfg, lg, false)
		if err != nil {
			return err
		}
		defer deps.Close()

		return seed(cmd.Context(), deps)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear the demo user's existing data before seeding")
	seedCmd.Flags().StringVar(&seedEmail, "email", "demo@budget.local", "demo user email")
	seedCmd.Flags().StringVar(&seedName, "name", "Demo User", "demo user name")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "demo user password")
}

func seed(ctx context.Context, deps *Dependencies) error {
	u, created, err := deps.Users.Ensure(ctx, user.CreateUserDTO{
		Email:    seedEmail,
		Name:     seedName,
		Password: seedPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure demo user: %w", err)
	}
	if created {
		fmt.Println("Seeded demo user:", u.Email)
		if _, err := deps.Notifications.Create(ctx, notification.NewWelcome(u.ID, u.FirstName())); err != nil {
			return fmt.Errorf("failed to create welcome notification: %w", err)
		}
	} else {
		fmt.Println("demo user already exists:", u.Email)
	}

	if clearData {
		if err := clearUserData(ctx, deps, u.ID); err != nil {
			return err
		}
		fmt.Println("Cleared existing data for", u.Email)
	}

	existing, err := deps.Budgets.List(ctx, u.ID, true, nil)
	if err != nil {
		return fmt.Errorf("failed to list budgets: %w", err)
	}
	if len(existing) > 0 {
		fmt.Println("demo data already present; use --clear to reseed")
		return nil
	}

	for _, b := range demoBudgets() {
		view, err := deps.Budgets.Create(ctx, u.ID, b)
		if err != nil {
			return fmt.Errorf("failed to create %s budget: %w", b.Category, err)
		}
		fmt.Printf("Seeded budget: %s %s\n", view.Category, b.Amount.StringFixed(2))
	}

	rows := demoExpenses(deps.Budgets.Today())
	if _, err := deps.ExpenseSvc.CreateBulk(ctx, u.ID, rows); err != nil {
		return fmt.Errorf("failed to create demo expenses: %w", err)
	}
	fmt.Printf("Seeded %d expenses over the last %d days\n", len(rows), seedHistoryDays)
	return nil
}

// clearUserData removes rows directly; the services only soft delete budgets.
func clearUserData(ctx context.Context, deps *Dependencies, userID int64) error {
	for _, table := range []string{"notifications", "expenses", "budgets"} {
		query := deps.DB.Rebind(fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", table))
		if _, err := deps.DB.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func demoBudgets() []budget.CreateBudgetDTO {
	threshold := 80
	mk := func(cat string, amount int64) budget.CreateBudgetDTO {
		return budget.CreateBudgetDTO{
			Category:       cat,
			Amount:         decimal.NewFromInt(amount),
			Period:         budget.PeriodMonthly,
			AlertThreshold: &threshold,
		}
	}
	return []budget.CreateBudgetDTO{
		mk(category.Food, 400),
		mk(category.Transport, 150),
		mk(category.Entertainment, 120),
		mk(category.Bills, 900),
		mk(category.Total, 2000),
	}
}

// demoExpenses is a fixed schedule so reseeding produces the same history.
func demoExpenses(today time.Time) []expense.CreateExpenseDTO {
	var out []expense.CreateExpenseDTO
	add := func(day date.Date, cat, desc, method string, cents int64) {
		d := day
		out = append(out, expense.CreateExpenseDTO{
			Amount:        decimal.New(cents, -2),
			Category:      cat,
			Description:   desc,
			Date:          &d,
			PaymentMethod: method,
		})
	}

	for i := seedHistoryDays; i >= 0; i-- {
		day := date.New(today.AddDate(0, 0, -i))
		if day.Day() == 1 {
			add(day, category.Bills, "Rent and utilities", expense.PaymentBankTransfer, 85000)
		}
		if i%2 == 0 {
			add(day, category.Food, "Groceries", expense.PaymentDebitCard, 1200+int64(i%5)*350)
		}
		if i%3 == 0 {
			add(day, category.Transport, "Transit pass top-up", expense.PaymentDigitalWallet, 850)
		}
		if i%7 == 0 {
			add(day, category.Entertainment, "Cinema and streaming", expense.PaymentCreditCard, 2500+int64(i%3)*1000)
		}
		if i%10 == 0 {
			add(day, category.Shopping, "Household goods", expense.PaymentCreditCard, 4000+int64(i%4)*1500)
		}
		if i%30 == 15 {
			add(day, category.Healthcare, "Pharmacy", expense.PaymentCash, 6000)
		}
	}
	return out
}
