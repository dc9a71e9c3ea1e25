package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/storage"
	"mailadmin/backend/internal/storage/memory"
)

func TestQuotaLedger(t *testing.T) {
	t.Run("Ensure保留已累计的用量", func(t *testing.T) {
		store := memory.NewStore()
		quotas := NewQuotaService(store)

		require.NoError(t, quotas.Ensure("a@x.com", 100))
		rec, err := store.GetQuotaRecord("a@x.com")
		require.NoError(t, err)
		rec.Bytes = 1024
		rec.Messages = 3
		require.NoError(t, store.SaveQuotaRecord(rec))

		require.NoError(t, quotas.Ensure("a@x.com", 200))
		rec, err = store.GetQuotaRecord("a@x.com")
		require.NoError(t, err)
		assert.Equal(t, 200, rec.Quota)
		assert.Equal(t, int64(1024), rec.Bytes)
		assert.Equal(t, 3, rec.Messages)
	})

	t.Run("Remove对不存在的记录静默", func(t *testing.T) {
		quotas := NewQuotaService(memory.NewStore())
		assert.NoError(t, quotas.Remove("ghost@x.com"))
	})

	t.Run("ReKeyDomain整批替换后缀", func(t *testing.T) {
		store := memory.NewStore()
		quotas := NewQuotaService(store)

		require.NoError(t, store.SaveQuotaRecord(&domain.QuotaRecord{Address: "a@old.com", Quota: 10, Bytes: 5}))
		require.NoError(t, store.SaveQuotaRecord(&domain.QuotaRecord{Address: "b@old.com", Quota: 20}))
		require.NoError(t, store.SaveQuotaRecord(&domain.QuotaRecord{Address: "c@other.com", Quota: 30}))

		require.NoError(t, quotas.ReKeyDomain("old.com", "new.com"))

		rec, err := store.GetQuotaRecord("a@new.com")
		require.NoError(t, err)
		assert.Equal(t, 10, rec.Quota)
		assert.Equal(t, int64(5), rec.Bytes)

		_, err = store.GetQuotaRecord("a@old.com")
		assert.ErrorIs(t, err, storage.ErrQuotaNotFound)

		// 其他域的记录不受影响
		_, err = store.GetQuotaRecord("c@other.com")
		assert.NoError(t, err)
	})

	t.Run("生效配额的推导", func(t *testing.T) {
		d := &domain.Domain{Quota: 100}
		q := 50

		assert.Equal(t, 100, EffectiveQuota(&domain.Mailbox{UseDomainQuota: true, Quota: &q}, d))
		assert.Equal(t, 50, EffectiveQuota(&domain.Mailbox{Quota: &q}, d))
		assert.Equal(t, 0, EffectiveQuota(&domain.Mailbox{}, d), "nil配额视为不限制")
	})
}
