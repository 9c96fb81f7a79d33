package apify

import "fmt"

// JobSpec describes one remote scrape job: which actor to run and its
// input parameters. Two specs with equal actor and input map to the same
// cache key regardless of map iteration order.
type JobSpec struct {
	ActorID string
	Input   map[string]interface{}
}

// JobHandle is an opaque token for a submitted job: either a real remote
// run id or a synthetic token for a cache hit. Once resolved to a result
// set it is never reused.
type JobHandle struct {
	RunID    string
	CacheKey string
	Cached   bool
}

func (h JobHandle) String() string {
	if h.Cached {
		return "cached:" + h.CacheKey
	}
	return h.RunID
}

// ResultRef references a resolved result set: a remote dataset or a local
// cache entry.
type ResultRef struct {
	DatasetID string
	CacheKey  string
	Cached    bool
}

func (r ResultRef) String() string {
	if r.Cached {
		return "cached:" + r.CacheKey
	}
	return fmt.Sprintf("dataset:%s", r.DatasetID)
}

// Remote job terminal states.
const (
	statusSucceeded = "SUCCEEDED"
	statusFailed    = "FAILED"
	statusAborted   = "ABORTED"
	statusTimedOut  = "TIMED-OUT"
)

// runEnvelope is the wire shape of run creation and run status responses.
type runEnvelope struct {
	Data runData `json:"data"`
}

type runData struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}
