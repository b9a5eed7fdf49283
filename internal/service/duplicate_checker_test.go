package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studentreg/internal/models"
	"studentreg/pkg/crypto"
)

func newTestCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.NewCipher(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	return c
}

func encryptedStudent(t *testing.T, c *crypto.Cipher, id, email, mobile string) models.Student {
	t.Helper()
	emailCT, err := c.Encrypt(email)
	require.NoError(t, err)
	mobileCT, err := c.Encrypt(mobile)
	require.NoError(t, err)
	return models.Student{ID: id, Name: "Student " + id, Email: emailCT, Mobile: mobileCT}
}

func TestDuplicateCheckerVerdicts(t *testing.T) {
	cipher := newTestCipher(t)
	checker := NewDuplicateChecker(zap.NewNop())
	records := []models.Student{
		encryptedStudent(t, cipher, "rec-1", "john@example.com", "5551234567"),
	}

	cases := []struct {
		name      string
		candidate Candidate
		verdict   Verdict
		matchedID string
	}{
		{
			name:      "email conflict despite different case",
			candidate: Candidate{Email: "JOHN@EXAMPLE.COM", Mobile: "555-999-0000"},
			verdict:   EmailConflict,
			matchedID: "rec-1",
		},
		{
			name:      "mobile conflict despite punctuation",
			candidate: Candidate{Email: "jane@example.com", Mobile: "(555) 123-4567"},
			verdict:   MobileConflict,
			matchedID: "rec-1",
		},
		{
			name:      "combined conflict",
			candidate: Candidate{Email: "JOHN@example.com", Mobile: "5551234567"},
			verdict:   CombinedConflict,
			matchedID: "rec-1",
		},
		{
			name:      "no conflict",
			candidate: Candidate{Email: "new@example.com", Mobile: "1112223333"},
			verdict:   NoConflict,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := checker.Check(tc.candidate, records, cipher.Decrypt)
			assert.Equal(t, tc.verdict, result.Verdict)
			assert.Equal(t, tc.matchedID, result.MatchedID)
			assert.Zero(t, result.SkippedRecords)
		})
	}
}

func TestDuplicateCheckerCombinedBeatsSplitMatches(t *testing.T) {
	cipher := newTestCipher(t)
	checker := NewDuplicateChecker(zap.NewNop())

	// rec-1 matches email only, rec-2 matches mobile only, rec-3 matches
	// both. The combined record must win regardless of scan position.
	records := []models.Student{
		encryptedStudent(t, cipher, "rec-1", "john@example.com", "1110000000"),
		encryptedStudent(t, cipher, "rec-2", "other@example.com", "5551234567"),
		encryptedStudent(t, cipher, "rec-3", "john@example.com", "5551234567"),
	}

	result := checker.Check(Candidate{Email: "john@example.com", Mobile: "5551234567"}, records, cipher.Decrypt)
	assert.Equal(t, CombinedConflict, result.Verdict)
	assert.Equal(t, "rec-3", result.MatchedID)
}

func TestDuplicateCheckerSplitMatchesPreferEmail(t *testing.T) {
	cipher := newTestCipher(t)
	checker := NewDuplicateChecker(zap.NewNop())

	records := []models.Student{
		encryptedStudent(t, cipher, "rec-1", "other@example.com", "5551234567"),
		encryptedStudent(t, cipher, "rec-2", "john@example.com", "1110000000"),
	}

	result := checker.Check(Candidate{Email: "john@example.com", Mobile: "5551234567"}, records, cipher.Decrypt)
	assert.Equal(t, EmailConflict, result.Verdict)
	assert.Equal(t, "rec-2", result.MatchedID)
}

func TestDuplicateCheckerSkipsCorruptRecords(t *testing.T) {
	cipher := newTestCipher(t)
	checker := NewDuplicateChecker(zap.NewNop())

	corrupt := encryptedStudent(t, cipher, "rec-1", "john@example.com", "5551234567")
	corrupt.Email = []byte("not a valid ciphertext")

	result := checker.Check(Candidate{Email: "new@example.com", Mobile: "1112223333"}, []models.Student{corrupt}, cipher.Decrypt)
	assert.Equal(t, NoConflict, result.Verdict)
	assert.Equal(t, 1, result.SkippedRecords)
}

func TestDuplicateCheckerCorruptRecordDoesNotHideOtherDuplicate(t *testing.T) {
	cipher := newTestCipher(t)
	checker := NewDuplicateChecker(zap.NewNop())

	corrupt := encryptedStudent(t, cipher, "rec-1", "a@example.com", "2220000000")
	corrupt.Mobile = []byte{0x01}
	intact := encryptedStudent(t, cipher, "rec-2", "john@example.com", "5551234567")

	result := checker.Check(Candidate{Email: "john@example.com", Mobile: "9998887777"}, []models.Student{corrupt, intact}, cipher.Decrypt)
	assert.Equal(t, EmailConflict, result.Verdict)
	assert.Equal(t, "rec-2", result.MatchedID)
	assert.Equal(t, 1, result.SkippedRecords)
}

func TestDuplicateCheckerEmptyTable(t *testing.T) {
	cipher := newTestCipher(t)
	checker := NewDuplicateChecker(zap.NewNop())

	result := checker.Check(Candidate{Email: "new@example.com", Mobile: "1112223333"}, nil, cipher.Decrypt)
	assert.Equal(t, NoConflict, result.Verdict)
	assert.Empty(t, result.MatchedID)
}
