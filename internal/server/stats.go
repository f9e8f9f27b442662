package server

import (
	"log"
	"sync/atomic"
	"time"
)

// StartStatsTicker updates the records-per-second rate every interval
// and logs a progress line when anything was ingested. Runs until
// Shutdown.
func (s *IngestServer) StartStatsTicker(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last int64
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				total := atomic.LoadInt64(&s.recordCounter)
				delta := total - last
				last = total
				perSec := int64(float64(delta) / interval.Seconds())
				atomic.StoreInt64(&s.currentRate, perSec)
				if delta > 0 {
					log.Printf("handled %d requests, ingested %d records total (%d/s)",
						atomic.LoadInt64(&s.requestCounter), total, perSec)
				}
			}
		}
	}()
}

// TotalRequests returns how many ingest requests have been accepted.
func (s *IngestServer) TotalRequests() int64 {
	return atomic.LoadInt64(&s.requestCounter)
}

// TotalRecords returns how many records have been written so far.
func (s *IngestServer) TotalRecords() int64 {
	return atomic.LoadInt64(&s.recordCounter)
}

// Rate returns the most recent records-per-second measurement.
func (s *IngestServer) Rate() int64 {
	return atomic.LoadInt64(&s.currentRate)
}
