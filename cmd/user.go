package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/akhilbawari/taskpal/internal/models"
)

// UserCreate registers a user record that tasks can be owned by.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	user := models.NewUser(0, cmd.String("email"), cmd.String("name"))
	if err := r.users.Create(user); err != nil {
		return err
	}

	r.writePlain("✓ Created user %s (%s)\n", user.ID(), user.Email())
	return nil
}

// UserList lists all users and their calendar linkage state.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensure(); err != nil {
		return err
	}

	users, err := r.users.List(nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type userRow struct {
			ID             string `json:"id"`
			Email          string `json:"email"`
			Name           string `json:"name"`
			CalendarLinked bool   `json:"calendar_linked"`
		}
		rows := make([]userRow, 0, len(users))
		for _, u := range users {
			rows = append(rows, userRow{u.ID(), u.Email(), u.Name(), u.CalendarLinked()})
		}
		return r.writeJSON(rows, true)
	}

	if len(users) == 0 {
		return r.writePlain("No users\n")
	}

	for _, u := range users {
		linked := " "
		if u.CalendarLinked() {
			linked = "✓"
		}
		r.writePlain("[%s] %s  %s (%s)\n", linked, u.ID(), u.Name(), u.Email())
	}
	return nil
}

// resolveUser looks up a user by id first, then by email.
func (r *Runner) resolveUser(ref string) (*models.User, error) {
	user, err := r.users.Get(ref)
	if err == nil {
		return user, nil
	}

	if strings.Contains(ref, "@") {
		return r.users.GetByEmail(ref)
	}

	return nil, err
}
