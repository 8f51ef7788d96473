package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/divin3circle/hashrexa/domain"
)

func msg(role, content string) domain.ChatMessage {
	return domain.ChatMessage{Role: role, Content: content}
}

func TestMemoryStoreAppendAndRecent(t *testing.T) {
	store := NewMemoryStore()

	store.Append("alice", msg("user", "hello"), msg("assistant", "hi"))
	store.Append("alice", msg("user", "how are you"))

	recent := store.Recent("alice", 5)
	assert.Len(t, recent, 3)
	assert.Equal(t, "hello", recent[0].Content)
	assert.Equal(t, "how are you", recent[2].Content)
}

func TestMemoryStoreEvictsOldestBeyondCap(t *testing.T) {
	store := NewMemoryStore()

	for i := 0; i < 30; i++ {
		store.Append("alice", msg("user", fmt.Sprintf("message %d", i)))
	}

	recent := store.Recent("alice", historyCap+10)
	assert.Len(t, recent, historyCap)
	assert.Equal(t, "message 10", recent[0].Content)
	assert.Equal(t, "message 29", recent[len(recent)-1].Content)
}

func TestMemoryStoreRecentWindowsFromTail(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 10; i++ {
		store.Append("alice", msg("user", fmt.Sprintf("message %d", i)))
	}

	recent := store.Recent("alice", 3)
	assert.Len(t, recent, 3)
	assert.Equal(t, "message 7", recent[0].Content)
	assert.Equal(t, "message 9", recent[2].Content)
}

func TestMemoryStoreUsersAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	store.Append("alice", msg("user", "alice says"))
	store.Append("bob", msg("user", "bob says"))

	assert.Len(t, store.Recent("alice", 10), 1)
	assert.Len(t, store.Recent("bob", 10), 1)
	assert.Empty(t, store.Recent("carol", 10))
}

func TestMemoryStoreLoanData(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.LoanData("alice")
	assert.False(t, ok)

	store.PutLoanData("alice", domain.UserLoanData{TotalBorrowed: 500, RiskProfile: "moderate"})
	data, ok := store.LoanData("alice")
	assert.True(t, ok)
	assert.Equal(t, 500.0, data.TotalBorrowed)

	// Replacement is wholesale, not a merge.
	store.PutLoanData("alice", domain.UserLoanData{RiskProfile: "low"})
	data, _ = store.LoanData("alice")
	assert.Zero(t, data.TotalBorrowed)
	assert.Equal(t, "low", data.RiskProfile)
}

func TestMemoryStoreConcurrentAppendsHoldCap(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				store.Append("alice", msg("user", fmt.Sprintf("g%d-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, store.Recent("alice", historyCap*2), historyCap)
}
