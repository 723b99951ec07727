package notifpanel

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducpham/marketdesk/internal/keys"
	"github.com/ducpham/marketdesk/internal/model"
	"github.com/ducpham/marketdesk/internal/notify"
)

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestHistoryKindFilterCyclesThroughEveryKind(t *testing.T) {
	want := []model.NotificationKind{
		model.KindNewOrder,
		model.KindPaymentRequest,
		model.KindWithdrawRequest,
		model.KindTicketMessage,
		"",
	}

	k := model.NotificationKind("")
	for _, w := range want {
		k = nextHistKind(k)
		assert.Equal(t, w, k)
	}
}

func TestFilterKeyReloadsHistoryFromPageZero(t *testing.T) {
	store := notify.NewStore("admin_1")
	m := New(store, nil, nil, keys.DefaultKeyMap(), 80, 24)
	m.mode = modeHistory
	m.histPage = 3

	m, cmd := m.Update(keyMsg('f'))

	assert.Equal(t, model.KindNewOrder, m.histKind)
	assert.Equal(t, 0, m.histPage)
	require.NotNil(t, cmd)

	// Without an archive the reload degrades to an empty page.
	msg, ok := cmd().(HistoryLoadedMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Err)
	assert.Empty(t, msg.Notifications)
}

func TestFilterKeyIgnoredOutsideHistory(t *testing.T) {
	store := notify.NewStore("admin_1")
	m := New(store, nil, nil, keys.DefaultKeyMap(), 80, 24)

	m, cmd := m.Update(keyMsg('f'))

	assert.Equal(t, model.NotificationKind(""), m.histKind)
	assert.Nil(t, cmd)
}

func TestLeavingHistoryResetsTheKindFilter(t *testing.T) {
	store := notify.NewStore("admin_1")
	m := New(store, nil, nil, keys.DefaultKeyMap(), 80, 24)
	m.mode = modeHistory
	m.histKind = model.KindTicketMessage

	// H leaves history; entering again starts unfiltered.
	m, _ = m.Update(keyMsg('H'))
	require.Equal(t, modePreview, m.mode)

	m, _ = m.Update(keyMsg('H'))
	assert.Equal(t, modeHistory, m.mode)
	assert.Equal(t, model.NotificationKind(""), m.histKind)
}
