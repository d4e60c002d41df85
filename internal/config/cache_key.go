package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamReadinessKey returns the cache key for an exam's readiness report
func (r *CacheKeyStruct) ExamReadinessKey(examID string) string {
	return fmt.Sprintf("exam:%s:readiness", examID)
}

// AttemptPaperKey returns the cache key for the student-facing paper of an attempt
func (r *CacheKeyStruct) AttemptPaperKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:paper", attemptID)
}

var CacheKey = NewCacheKeyStruct()
