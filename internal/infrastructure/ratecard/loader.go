package ratecard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"surveybridge/internal/bootstrap/logging"
	"surveybridge/internal/domain/survey"
	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

type entryFile struct {
	IRMin  float64 `toml:"ir_min"`
	IRMax  float64 `toml:"ir_max"`
	LOIMin int     `toml:"loi_min"`
	LOIMax int     `toml:"loi_max"`
	Rate   float64 `toml:"rate"`
}

type cardFile struct {
	ID      string      `toml:"id"`
	Name    string      `toml:"name"`
	Entries []entryFile `toml:"entry"`
}

type rateCardFile struct {
	Cards []cardFile `toml:"card"`
}

// LoadFile parses one TOML rate-card file.
func LoadFile(path string) ([]survey.RateCard, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read rate card file %q", path)
	}

	var parsed rateCardFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, errs.Wrapf(err, "parse rate card file %q", path)
	}

	cards := make([]survey.RateCard, 0, len(parsed.Cards))
	for _, card := range parsed.Cards {
		if strings.TrimSpace(card.ID) == "" {
			return nil, fmt.Errorf("rate card file %q: card id is required", path)
		}

		entries := make([]survey.RateEntry, 0, len(card.Entries))
		for i, entry := range card.Entries {
			if entry.IRMax < entry.IRMin || entry.LOIMax < entry.LOIMin {
				return nil, fmt.Errorf("rate card %q entry %d: inverted range", card.ID, i)
			}
			if entry.Rate <= 0 {
				return nil, fmt.Errorf("rate card %q entry %d: rate must be positive", card.ID, i)
			}
			entries = append(entries, survey.RateEntry{
				RateCardID: card.ID,
				IRMin:      entry.IRMin,
				IRMax:      entry.IRMax,
				LOIMin:     entry.LOIMin,
				LOIMax:     entry.LOIMax,
				Rate:       entry.Rate,
			})
		}

		cards = append(cards, survey.RateCard{
			RateCardID: card.ID,
			Name:       card.Name,
			Entries:    entries,
		})
	}
	return cards, nil
}

// LoadDir parses every .toml file under dir.
func LoadDir(dir string) ([]survey.RateCard, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, errs.Wrapf(err, "glob rate card dir %q", dir)
	}

	var cards []survey.RateCard
	for _, path := range paths {
		fileCards, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cards = append(cards, fileCards...)
	}
	return cards, nil
}

// Seed upserts every card found under dir.
func Seed(ctx context.Context, repo ports.RateCardRepository, dir string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	cards, err := LoadDir(dir)
	if err != nil {
		return err
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "ratecard"))
	for _, card := range cards {
		if err := repo.UpsertCard(ctx, card); err != nil {
			return errs.Wrapf(err, "upsert rate card %q", card.RateCardID)
		}
		logging.Info(logCtx, "rate card seeded",
			slog.String("rate_card_id", card.RateCardID),
			slog.Int("entries", len(card.Entries)),
		)
	}
	return nil
}
