package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/lorekeeper/internal/client/api"
	"github.com/dmitrijs2005/lorekeeper/internal/client/guard"
	"github.com/dmitrijs2005/lorekeeper/internal/common"
)

// ListProjects prints the project list, falling back to the local cache
// when the backend is unreachable.
func (a *App) ListProjects(ctx context.Context) error {
	if a.navigate(guard.RouteHome) != guard.RouteHome {
		return nil
	}
	items, err := a.project.List(ctx)
	if err != nil {
		a.printAuthError(err)
		return nil
	}
	if len(items) == 0 {
		a.printf("No projects yet. Use 'add' to start one.")
		return nil
	}
	for _, p := range items {
		genre := p.Genre
		if genre == "" {
			genre = "-"
		}
		a.printf("%s  %-24s  %s", p.ID, p.Name, genre)
	}
	return nil
}

// AddProject prompts for a name and genre and creates the project.
func (a *App) AddProject(ctx context.Context) error {
	if a.navigate(guard.RouteHome) != guard.RouteHome {
		return nil
	}
	name, err := getSimpleText(a.reader, "Project name", a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		a.printf("Project name is required")
		return nil
	}

	genre, err := getSimpleText(a.reader, "Genre (optional)", a.out)
	if err != nil {
		return err
	}

	p, err := a.project.Create(ctx, name, genre)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			a.printf("Projects can only be created while online")
			return nil
		}
		a.printAuthError(err)
		return nil
	}
	a.printf("Created %s (%s)", p.Name, p.ID)
	return nil
}

// RemoveProject deletes the project with the given id.
func (a *App) RemoveProject(ctx context.Context, id string) error {
	if a.navigate(guard.RouteHome) != guard.RouteHome {
		return nil
	}
	if id == "" {
		a.printf("Usage: rm <project-id>")
		return nil
	}
	if err := a.project.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			a.printf("No such project: %s", id)
		case errors.Is(err, api.ErrUnavailable):
			a.printf("Projects can only be deleted while online")
		default:
			a.printAuthError(err)
		}
		return nil
	}
	a.printf("Deleted %s", id)
	return nil
}
