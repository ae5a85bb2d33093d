package services

import (
	"context"
	"fmt"
	"sort"

	"Reco/models"

	"github.com/google/uuid"
)

type scoredTitle struct {
	title *models.Title
	score int
	avg   float64
}

// RecommendByAverageRating orders candidates by mean rating, highest first,
// breaking ties by name. The input slice is not modified.
func RecommendByAverageRating(candidates []*models.Title, topN int) []*models.Title {
	return rank(candidates, nil, topN)
}

// RecommendByProfile puts titles that share a genre with the profile's
// preferences first, then orders by mean rating and name. A nil profile
// falls back to RecommendByAverageRating.
func RecommendByProfile(candidates []*models.Title, profile *models.Profile, topN int) []*models.Title {
	if profile == nil {
		return RecommendByAverageRating(candidates, topN)
	}
	return rank(candidates, profile.PreferredGenreIDs(), topN)
}

func rank(candidates []*models.Title, preferred map[int64]struct{}, topN int) []*models.Title {
	if topN <= 0 {
		return []*models.Title{}
	}

	scored := make([]scoredTitle, 0, len(candidates))
	for _, t := range candidates {
		if t == nil {
			continue
		}
		scored = append(scored, scoredTitle{
			title: t,
			score: genreScore(t, preferred),
			avg:   t.AverageRating(),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.avg != b.avg {
			return a.avg > b.avg
		}
		return a.title.Name < b.title.Name
	})

	if topN > len(scored) {
		topN = len(scored)
	}
	out := make([]*models.Title, 0, topN)
	for _, s := range scored[:topN] {
		out = append(out, s.title)
	}
	return out
}

func genreScore(t *models.Title, preferred map[int64]struct{}) int {
	if len(preferred) == 0 {
		return 0
	}
	for _, g := range t.Genres {
		if _, ok := preferred[g.ID]; ok {
			return 1
		}
	}
	return 0
}

// Recommender loads candidates and profiles from storage and ranks them.
type Recommender struct {
	titles   TitleStore
	profiles ProfileStore
}

func NewRecommender(titles TitleStore, profiles ProfileStore) *Recommender {
	return &Recommender{titles: titles, profiles: profiles}
}

// TopRated ranks the catalog, or just typ when it is non-empty, by rating.
func (r *Recommender) TopRated(ctx context.Context, typ models.TitleType, topN int) ([]*models.Title, error) {
	candidates, err := r.candidates(ctx, typ)
	if err != nil {
		return nil, err
	}
	return RecommendByAverageRating(candidates, topN), nil
}

// ForUser ranks the catalog against userID's profile. Users without a
// profile get the plain rating order.
func (r *Recommender) ForUser(ctx context.Context, userID uuid.UUID, typ models.TitleType, topN int) ([]*models.Title, error) {
	candidates, err := r.candidates(ctx, typ)
	if err != nil {
		return nil, err
	}
	profile, err := r.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return RecommendByProfile(candidates, profile, topN), nil
}

func (r *Recommender) candidates(ctx context.Context, typ models.TitleType) ([]*models.Title, error) {
	var (
		titles []*models.Title
		err    error
	)
	if typ == "" {
		titles, err = r.titles.ListAll(ctx)
	} else {
		titles, err = r.titles.ListByType(ctx, typ)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	return titles, nil
}
