package service

import (
	"go.uber.org/zap"

	"studentreg/internal/models"
	"studentreg/pkg/fingerprint"
)

// Verdict classifies the outcome of a duplicate check. Verdicts are
// values surfaced for user-facing messaging, not program errors.
type Verdict string

const (
	NoConflict       Verdict = "NO_CONFLICT"
	EmailConflict    Verdict = "EMAIL_CONFLICT"
	MobileConflict   Verdict = "MOBILE_CONFLICT"
	CombinedConflict Verdict = "COMBINED_CONFLICT"
)

// Candidate holds the raw contact fields of a registration attempt.
type Candidate struct {
	Email  string
	Mobile string
}

// DuplicateResult reports the classified outcome of a check.
// MatchedID identifies the conflicting record for any conflict verdict.
// SkippedRecords counts stored records whose ciphertext could not be
// decrypted and were excluded from comparison.
type DuplicateResult struct {
	Verdict        Verdict
	MatchedID      string
	SkippedRecords int
}

// DecryptFunc opens a stored ciphertext field.
type DecryptFunc func(ciphertext []byte) (string, error)

// DuplicateChecker compares a candidate's field fingerprints against
// every existing record. Comparison is defined strictly over SHA-256
// fingerprints of decrypted, normalized plaintext, never over ciphertext,
// so the policy is independent of cipher determinism.
type DuplicateChecker struct {
	logger *zap.Logger
}

// NewDuplicateChecker constructs a DuplicateChecker.
func NewDuplicateChecker(logger *zap.Logger) *DuplicateChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateChecker{logger: logger}
}

// Check scans all existing records and classifies the candidate.
//
// A record matching both fields yields CombinedConflict and takes
// priority even when different records would separately match email and
// mobile. A record that fails to decrypt is skipped and counted; the
// scan never aborts, so one corrupt row cannot block registrations.
// The cost is O(len(records)) decrypt operations per check.
func (c *DuplicateChecker) Check(candidate Candidate, records []models.Student, decrypt DecryptFunc) DuplicateResult {
	emailFP := fingerprint.Email(candidate.Email)
	mobileFP := fingerprint.Mobile(candidate.Mobile)

	result := DuplicateResult{Verdict: NoConflict}
	var emailMatchID, mobileMatchID, combinedMatchID string

	for _, record := range records {
		email, err := decrypt(record.Email)
		if err != nil {
			c.logger.Warn("skipping undecryptable record", zap.String("student_id", record.ID), zap.Error(err))
			result.SkippedRecords++
			continue
		}
		mobile, err := decrypt(record.Mobile)
		if err != nil {
			c.logger.Warn("skipping undecryptable record", zap.String("student_id", record.ID), zap.Error(err))
			result.SkippedRecords++
			continue
		}

		emailMatch := fingerprint.Email(email) == emailFP
		mobileMatch := fingerprint.Mobile(mobile) == mobileFP

		switch {
		case emailMatch && mobileMatch:
			if combinedMatchID == "" {
				combinedMatchID = record.ID
			}
		case emailMatch:
			if emailMatchID == "" {
				emailMatchID = record.ID
			}
		case mobileMatch:
			if mobileMatchID == "" {
				mobileMatchID = record.ID
			}
		}
	}

	switch {
	case combinedMatchID != "":
		result.Verdict = CombinedConflict
		result.MatchedID = combinedMatchID
	case emailMatchID != "":
		result.Verdict = EmailConflict
		result.MatchedID = emailMatchID
	case mobileMatchID != "":
		result.Verdict = MobileConflict
		result.MatchedID = mobileMatchID
	}

	return result
}
