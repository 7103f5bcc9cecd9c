package countryloader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/formexport/internal/repository"
)

// Langcode is the translation used for the chosen country title.
const Langcode = "de"

// CountryLoader batches node title lookups for the country a submission voted for.
type CountryLoader struct {
	Loader *dataloader.Loader
}

// NewCountryLoader returns a loader that resolves node ids to their titles in langcode.
// Results are cached for the loader's lifetime, so create one per export job.
func NewCountryLoader(repo repository.NodeTitleRepository, langcode string) *CountryLoader {
	if strings.TrimSpace(langcode) == "" {
		langcode = Langcode
	}
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		nids := make([]int64, 0, len(keys))
		parsed := make([]int64, len(keys))
		valid := make([]bool, len(keys))
		for i, k := range keys {
			nid, err := strconv.ParseInt(strings.TrimSpace(k.String()), 10, 64)
			if err != nil {
				continue
			}
			parsed[i] = nid
			valid[i] = true
			nids = append(nids, nid)
		}

		titles, err := repo.TitlesByIDs(ctx, langcode, nids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		// Build results in the same order as keys
		results := make([]*dataloader.Result, len(keys))
		for i := range keys {
			title := ""
			if valid[i] {
				title = titles[parsed[i]]
			}
			results[i] = &dataloader.Result{Data: title}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond))
	return &CountryLoader{Loader: loader}
}

// Title returns the title of the node referenced by value, or "" when there is none.
func (l *CountryLoader) Title(ctx context.Context, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	data, err := l.Loader.Load(ctx, dataloader.StringKey(value))()
	if err != nil {
		return "", fmt.Errorf("load chosen country %s: %w", value, err)
	}
	title, _ := data.(string)
	return title, nil
}
