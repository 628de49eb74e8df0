package search

import "github.com/poiesic/triage/core"

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during retrieval.
type RetrievalMonitor interface {
	Start(query core.Query)
	AfterVectorSearch(ids []uint64)
	AfterKeywordSearch(ids []uint64)
	SourceDegraded(source string, err error)
	DegenerateQuery(tokenCount int)
	Finish(results []*core.RetrievalResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                     {}
func (n *noopMonitor) AfterVectorSearch(_ []uint64)           {}
func (n *noopMonitor) AfterKeywordSearch(_ []uint64)          {}
func (n *noopMonitor) SourceDegraded(_ string, _ error)       {}
func (n *noopMonitor) DegenerateQuery(_ int)                  {}
func (n *noopMonitor) Finish(_ []*core.RetrievalResult)       {}
