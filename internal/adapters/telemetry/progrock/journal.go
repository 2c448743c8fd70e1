package progrock

import (
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
)

var _ progrock.Writer = (*Journal)(nil)

// Journal is a progrock.Writer that logs every vertex once it completes.
type Journal struct {
	log ports.Logger

	mu   sync.Mutex
	done map[string]struct{}
}

// NewJournal creates a Journal writing to log.
func NewJournal(log ports.Logger) *Journal {
	return &Journal{log: log, done: make(map[string]struct{})}
}

// WriteStatus logs the vertices of the update that completed since the last update.
func (j *Journal) WriteStatus(update *progrock.StatusUpdate) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, v := range update.Vertexes {
		if v.Completed == nil || v.Internal {
			continue
		}
		if _, seen := j.done[v.Id]; seen {
			continue
		}
		j.done[v.Id] = struct{}{}

		switch {
		case v.Error != nil:
			j.log.Log(domain.LogLevelDebug, "vertex failed: "+v.Name+": "+*v.Error)
		case v.Cached:
			j.log.Log(domain.LogLevelDebug, "vertex cached: "+v.Name)
		default:
			j.log.Log(domain.LogLevelDebug, "vertex done: "+v.Name)
		}
	}
	return nil
}

// Close does nothing.
func (j *Journal) Close() error {
	return nil
}
