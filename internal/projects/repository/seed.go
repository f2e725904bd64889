package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/GoSim-25-26J-441/portfolio-backend/internal/projects/domain"
)

//go:embed seeddata/*
var seedData embed.FS

// Seed is an example project. ImageFile names a bundled image that has to
// go through the asset store before the row is inserted.
type Seed struct {
	Project   domain.ProjectInput
	ImageFile string
}

// DefaultSeeds are the example projects inserted into an empty collection.
func DefaultSeeds() []Seed {
	return []Seed{
		{
			Project: domain.ProjectInput{
				Name:        "Optimización",
				Description: "Biblioteca en Python con algoritmos unidimensionales, multidimensionales y programación dinámica.",
				Link:        domain.StringPtr("https://github.com/lucasmr19/Optimization"),
			},
			ImageFile: "opt.png",
		},
		{
			Project: domain.ProjectInput{
				Name:        "Sistema reserva de vuelos",
				Description: "Diseñado en Java utilizando programación orientada a objetos.",
				Link:        domain.StringPtr("https://github.com/lucasmr19/FlightBookingSystem"),
			},
			ImageFile: "plane.jpg",
		},
		{
			Project: domain.ProjectInput{
				Name:        "Maldición de la dimensión",
				Description: "Análisis de un dataset sobre la fuga de clientes seleccionando variables influyentes.",
				Link:        domain.StringPtr("https://github.com/lucasmr19/Machine-Learning/blob/main/Curse%20of%20dimensionality/Dimensionality_example.ipynb"),
			},
		},
	}
}

// OpenSeedImage opens a bundled example image by file name.
func OpenSeedImage(name string) (fs.File, error) {
	return seedData.Open(path.Join("seeddata", name))
}

// SeedInputs returns the project fields of seeds, without images.
func SeedInputs(seeds []Seed) []domain.ProjectInput {
	out := make([]domain.ProjectInput, len(seeds))
	for i, s := range seeds {
		out[i] = s.Project
	}
	return out
}

// SeedIfEmpty inserts seeds only when the table has no rows. The check and
// the inserts share one transaction. Returns the number of rows inserted.
func (r *ProjectRepository) SeedIfEmpty(ctx context.Context, seeds []domain.ProjectInput) (int, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistenceErr("seed", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n); err != nil {
		return 0, persistenceErr("seed", err)
	}
	if n > 0 {
		return 0, nil
	}

	q := r.db.Rebind(`INSERT INTO projects (nombre, descripcion, enlace, imagen) VALUES (?, ?, ?, ?)`)
	for i, s := range seeds {
		if _, err := tx.ExecContext(ctx, q, s.Name, s.Description, s.Link, s.Image); err != nil {
			return 0, persistenceErr("seed", fmt.Errorf("seed %d (%s): %w", i, s.Name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, persistenceErr("seed", err)
	}
	return len(seeds), nil
}
