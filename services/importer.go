package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"Reco/models"
	"Reco/shared/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultImportConcurrency = 4

// ErrNoMetadataSource is returned by fetching imports when no TMDB key is
// configured.
var ErrNoMetadataSource = errors.New("metadata source not configured")

// ImportRequest names one title at the metadata source.
type ImportRequest struct {
	ExternalID int    `json:"external_id" validate:"required,gt=0"`
	MediaKind  string `json:"media_kind" validate:"omitempty,oneof=movie tv series show"`
}

// ImportResult reports the outcome for one item of a batch.
type ImportResult struct {
	ExternalID int
	MediaKind  string
	TitleID    uuid.UUID
	Name       string
	Created    bool
	Err        error
}

func (r ImportResult) OK() bool {
	return r.Err == nil
}

// Importer makes the local catalog reflect the metadata source. Imports are
// idempotent: repeating one with unchanged metadata changes nothing.
type Importer struct {
	titles      TitleStore
	genres      GenreStore
	source      MetadataSource
	locks       *TitleLocks
	external    *keyedMutex[int]
	group       singleflight.Group
	concurrency int
	logger      *slog.Logger
}

type ImporterOption func(*Importer)

// WithConcurrency bounds how many items of a batch are imported at once.
func WithConcurrency(n int) ImporterOption {
	return func(i *Importer) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

func WithImportLogger(l *slog.Logger) ImporterOption {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewImporter wires an importer. locks must be the set shared with the
// ReviewService so merges never overwrite a concurrently added review.
func NewImporter(titles TitleStore, genres GenreStore, source MetadataSource, locks *TitleLocks, opts ...ImporterOption) *Importer {
	if locks == nil {
		locks = NewTitleLocks()
	}
	i := &Importer{
		titles:      titles,
		genres:      genres,
		source:      source,
		locks:       locks,
		external:    newKeyedMutex[int](),
		concurrency: defaultImportConcurrency,
		logger:      logger.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logger.Component(i.logger, "importer")
	return i
}

type mergeOutcome struct {
	title   *models.Title
	created bool
}

// Import fetches externalID from the metadata source and merges it into the
// catalog. Concurrent calls for the same id and kind share one fetch and
// merge.
func (i *Importer) Import(ctx context.Context, externalID int, mediaKind string) (*models.Title, error) {
	out, err := i.importOne(ctx, externalID, mediaKind)
	if err != nil {
		return nil, err
	}
	return out.title, nil
}

func (i *Importer) importOne(ctx context.Context, externalID int, mediaKind string) (*mergeOutcome, error) {
	if externalID <= 0 {
		return nil, models.Errorf(models.KindValidation, "invalid external id %d", externalID)
	}
	if i.source == nil {
		return nil, ErrNoMetadataSource
	}
	v, err, _ := i.group.Do(strconv.Itoa(externalID)+":"+mediaKind, func() (any, error) {
		md, err := i.source.GetDetails(ctx, externalID, mediaKind)
		if err != nil {
			return nil, err
		}
		if md == nil {
			return nil, models.NotFound("no metadata for external id %d", externalID)
		}
		if md.MediaKind == "" {
			md.MediaKind = mediaKind
		}
		return i.merge(ctx, md)
	})
	if err != nil {
		return nil, err
	}
	return v.(*mergeOutcome), nil
}

// Merge creates or updates the title for md.ExternalID. Existing titles are
// reloaded under the title lock and only ever added to, so reviews recorded
// since the caller last looked are preserved by the full-replace upsert.
func (i *Importer) Merge(ctx context.Context, md *models.Metadata) (*models.Title, error) {
	out, err := i.merge(ctx, md)
	if err != nil {
		return nil, err
	}
	return out.title, nil
}

func (i *Importer) merge(ctx context.Context, md *models.Metadata) (out *mergeOutcome, err error) {
	start := time.Now()
	defer func() {
		importDuration.Observe(time.Since(start).Seconds())
		switch {
		case err != nil:
			importsTotal.WithLabelValues("failed").Inc()
		case out.created:
			importsTotal.WithLabelValues("created").Inc()
		default:
			importsTotal.WithLabelValues("updated").Inc()
		}
	}()

	if md == nil {
		return nil, models.Errorf(models.KindValidation, "metadata is required")
	}
	if strings.TrimSpace(md.Name) == "" {
		return nil, models.Errorf(models.KindValidation, "metadata for external id %d has no name", md.ExternalID)
	}

	unlockExternal := i.external.Lock(md.ExternalID)
	defer unlockExternal()

	existing, err := i.titles.GetByExternalID(ctx, md.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up external id %d: %w", md.ExternalID, err)
	}
	if existing == nil {
		title, err := i.create(ctx, md)
		if err != nil {
			return nil, err
		}
		return &mergeOutcome{title: title, created: true}, nil
	}

	title, err := i.update(ctx, existing.ID, md)
	if err != nil {
		return nil, err
	}
	return &mergeOutcome{title: title}, nil
}

func (i *Importer) create(ctx context.Context, md *models.Metadata) (*models.Title, error) {
	kind := md.MediaKind
	if kind == "" {
		kind = string(models.TitleMovie)
	}
	typ, err := models.ParseTitleType(kind)
	if err != nil {
		return nil, err
	}

	title, err := models.NewTitle(md.ExternalID, typ, md.Name)
	if err != nil {
		return nil, err
	}
	applyOptionalFields(title, md)
	if err := i.attachGenres(ctx, title, md.Genres); err != nil {
		return nil, err
	}

	if err := i.titles.Upsert(ctx, title); err != nil {
		return nil, fmt.Errorf("failed to save title %d: %w", md.ExternalID, err)
	}
	i.logger.Info("Imported new title", "external_id", md.ExternalID, "title_id", title.ID, "name", title.Name)
	return title, nil
}

func (i *Importer) update(ctx context.Context, id uuid.UUID, md *models.Metadata) (*models.Title, error) {
	unlock := i.locks.Lock(id)
	defer unlock()

	title, err := i.titles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload title %s: %w", id, err)
	}
	if title == nil {
		return nil, models.NotFound("title %s disappeared during import", id)
	}

	if title.Name != md.Name {
		if err := title.Rename(md.Name); err != nil {
			return nil, err
		}
	}
	if md.MediaKind != "" {
		typ, err := models.ParseTitleType(md.MediaKind)
		if err != nil {
			return nil, err
		}
		title.SetType(typ)
	}
	applyOptionalFields(title, md)
	if err := i.attachGenres(ctx, title, md.Genres); err != nil {
		return nil, err
	}
	title.UpdatedAt = time.Now().UTC()

	if err := i.titles.Upsert(ctx, title); err != nil {
		return nil, fmt.Errorf("failed to save title %d: %w", md.ExternalID, err)
	}
	i.logger.Debug("Merged title", "external_id", md.ExternalID, "title_id", title.ID, "reviews", len(title.Reviews))
	return title, nil
}

// applyOptionalFields copies the fields md actually carries. Blank values
// never overwrite what is already known.
func applyOptionalFields(title *models.Title, md *models.Metadata) {
	if strings.TrimSpace(md.Overview) != "" {
		title.SetSynopsis(md.Overview)
	}
	if strings.TrimSpace(md.PosterPath) != "" {
		title.SetPoster(md.PosterPath)
	}
	title.SetReleaseDate(md.ReleaseDate)
}

// attachGenres resolves each name, creating missing genres, and attaches it
// unless the title already carries a genre with that exact name.
func (i *Importer) attachGenres(ctx context.Context, title *models.Title, names []string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" || title.HasGenreNamed(name) {
			continue
		}
		genre, err := i.resolveGenre(ctx, name)
		if err != nil {
			return err
		}
		title.AddGenre(*genre)
	}
	return nil
}

func (i *Importer) resolveGenre(ctx context.Context, name string) (*models.Genre, error) {
	genre, err := i.genres.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up genre %q: %w", name, err)
	}
	if genre != nil {
		return genre, nil
	}

	g, err := models.NewGenre(name)
	if err != nil {
		return nil, err
	}
	if err := i.genres.Add(ctx, &g); err != nil {
		// Another import created it first.
		if errors.Is(err, models.ErrConflict) {
			existing, lookupErr := i.genres.GetByName(ctx, name)
			if lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create genre %q: %w", name, err)
	}
	return &g, nil
}

// ImportBatch imports every request, isolating failures per item. Results
// come back in request order; repeated ids are imported once and share a
// result. A repeated id with a different media kind fails with a conflict,
// since one external id maps to one title.
func (i *Importer) ImportBatch(ctx context.Context, reqs []ImportRequest) []ImportResult {
	return i.fanOut(ctx, len(reqs), func(n int) (int, string) {
		return reqs[n].ExternalID, reqs[n].MediaKind
	}, func(ctx context.Context, n int) (*mergeOutcome, error) {
		return i.importOne(ctx, reqs[n].ExternalID, reqs[n].MediaKind)
	})
}

// MergeBatch merges already fetched metadata with the same isolation rules
// as ImportBatch.
func (i *Importer) MergeBatch(ctx context.Context, items []models.Metadata) []ImportResult {
	return i.fanOut(ctx, len(items), func(n int) (int, string) {
		return items[n].ExternalID, items[n].MediaKind
	}, func(ctx context.Context, n int) (*mergeOutcome, error) {
		md := items[n]
		return i.merge(ctx, &md)
	})
}

// ImportTrending merges one page of the source's trending list.
func (i *Importer) ImportTrending(ctx context.Context, page int) ([]ImportResult, error) {
	if page < 1 {
		page = 1
	}
	if i.source == nil {
		return nil, ErrNoMetadataSource
	}
	items, err := i.source.GetTrending(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending page %d: %w", page, err)
	}
	return i.MergeBatch(ctx, items), nil
}

func (i *Importer) fanOut(ctx context.Context, n int, key func(int) (int, string), run func(context.Context, int) (*mergeOutcome, error)) []ImportResult {
	results := make([]ImportResult, n)
	first := make(map[int]int, n)
	var dupes []int

	var g errgroup.Group
	g.SetLimit(i.concurrency)
	for idx := 0; idx < n; idx++ {
		id, kind := key(idx)
		results[idx] = ImportResult{ExternalID: id, MediaKind: kind}
		if _, seen := first[id]; seen {
			dupes = append(dupes, idx)
			continue
		}
		first[id] = idx

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[idx].Err = err
				return nil
			}
			out, err := run(ctx, idx)
			if err != nil {
				results[idx].Err = err
				i.logger.Warn("Import failed", "external_id", id, "error", err)
				return nil
			}
			results[idx].TitleID = out.title.ID
			results[idx].Name = out.title.Name
			results[idx].Created = out.created
			return nil
		})
	}
	_ = g.Wait()

	for _, idx := range dupes {
		dup := results[idx]
		orig := results[first[dup.ExternalID]]
		if !sameKind(orig.MediaKind, dup.MediaKind) {
			results[idx].Err = models.Errorf(models.KindConflict,
				"external id %d already in this batch as %s, skipping %s", dup.ExternalID, orig.MediaKind, dup.MediaKind)
			i.logger.Warn("Skipping batch item with clashing media kind",
				"external_id", dup.ExternalID, "kind", dup.MediaKind, "first_kind", orig.MediaKind)
			continue
		}
		results[idx] = orig
		results[idx].MediaKind = dup.MediaKind
	}
	return results
}

// sameKind reports whether two media kinds name the same title type. A blank
// kind matches anything.
func sameKind(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	ta, errA := models.ParseTitleType(a)
	tb, errB := models.ParseTitleType(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta == tb
}
