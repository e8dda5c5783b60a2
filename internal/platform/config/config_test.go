package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	t.Run("empty input returns nil", func(t *testing.T) {
		assert.Nil(t, SplitList(""))
	})

	t.Run("preserves configured order", func(t *testing.T) {
		assert.Equal(t, []string{"p-bbb", "p-aaa", "p-ccc"}, SplitList("p-bbb,p-aaa,p-ccc"))
	})

	t.Run("trims whitespace and drops empty entries", func(t *testing.T) {
		assert.Equal(t, []string{"p-aaa", "p-bbb"}, SplitList(" p-aaa , ,p-bbb,"))
	})

	t.Run("only separators returns nil", func(t *testing.T) {
		assert.Nil(t, SplitList(", ,"))
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := FromEnv()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Nil(t, cfg.PolicyIDs)
		assert.True(t, cfg.DuplicateAttachAsSuccess)
		assert.Equal(t, "orgguard.audit.outcomes", cfg.Audit.Topic)
		assert.Equal(t, 10*time.Second, cfg.Orgs.Timeout)
	})

	t.Run("policy list and classification override", func(t *testing.T) {
		t.Setenv("ORGGUARD_POLICY_IDS", "p-aaa,p-bbb")
		t.Setenv("ORGGUARD_DUPLICATE_ATTACH_AS_SUCCESS", "false")

		cfg := FromEnv()
		assert.Equal(t, []string{"p-aaa", "p-bbb"}, cfg.PolicyIDs)
		assert.False(t, cfg.DuplicateAttachAsSuccess)
	})

	t.Run("bad duration falls back to default", func(t *testing.T) {
		t.Setenv("ORGGUARD_ORGS_TIMEOUT", "not-a-duration")
		cfg := FromEnv()
		assert.Equal(t, 10*time.Second, cfg.Orgs.Timeout)
	})
}
