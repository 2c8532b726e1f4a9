package tile

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"niriglue/internal/config"
	"niriglue/internal/handlers/tile/mocks"
	"niriglue/internal/log"
	"niriglue/internal/niri"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR", "json")
	m.Run()
}

func testConfig() config.TileConfig {
	return config.TileConfig{
		Enabled:         true,
		MaxAutoTiled:    3,
		MaximizeSolos:   true,
		MaximizeOnClose: true,
	}
}

func newTestManager(t *testing.T) (*Manager, *mocks.MockActions) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	actions := mocks.NewMockActions(ctrl)
	return New(testConfig(), actions), actions
}

func openedEvent(id, workspace uint64, floating bool, col int) niri.Event {
	payload := fmt.Sprintf(
		`{"window":{"id":%d,"workspace_id":%d,"is_floating":%t,"app_id":"app","layout":{"pos_in_scrolling_layout":[%d,1]}}}`,
		id, workspace, floating, col)
	return niri.Event{Tag: niri.WindowOpenedOrChanged, Payload: json.RawMessage(payload)}
}

func closedEvent(id uint64) niri.Event {
	return niri.Event{
		Tag:     niri.WindowClosed,
		Payload: json.RawMessage(fmt.Sprintf(`{"id":%d}`, id)),
	}
}

func TestSoloWindowIsMaximized(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "100%").Return(nil)

	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))
}

func TestSecondWindowSplitsEvenly(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "100%").Return(nil)
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))

	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "50%").Return(nil)
	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(2), "50%").Return(nil)
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(2, 10, false, 2)))
}

func TestThirdWindowConsumedIntoColumn(t *testing.T) {
	tests := []struct {
		name  string
		col   int
		right bool
	}{
		{name: "landed in middle column goes right", col: 2, right: true},
		{name: "other columns go left", col: 3, right: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, actions := newTestManager(t)
			ctx := context.Background()

			actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "100%").Return(nil)
			require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))
			actions.EXPECT().SetWindowWidth(gomock.Any(), gomock.Any(), "50%").Return(nil).Times(2)
			require.NoError(t, m.handleWindowOpened(ctx, openedEvent(2, 10, false, 2)))

			if tt.right {
				actions.EXPECT().ConsumeOrExpelRight(gomock.Any(), uint64(3)).Return(nil)
			} else {
				actions.EXPECT().ConsumeOrExpelLeft(gomock.Any(), uint64(3)).Return(nil)
			}
			require.NoError(t, m.handleWindowOpened(ctx, openedEvent(3, 10, false, tt.col)))
		})
	}
}

func TestBeyondMaxAutoTiledLeavesLayoutAlone(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	actions.EXPECT().SetWindowWidth(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	actions.EXPECT().ConsumeOrExpelLeft(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	actions.EXPECT().ConsumeOrExpelRight(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, m.handleWindowOpened(ctx, openedEvent(id, 10, false, int(id))))
	}

	// Fourth window: no expectations registered beyond the AnyTimes above;
	// verify by swapping in a strict mock.
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	strict := mocks.NewMockActions(ctrl)
	m.actions = strict

	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(4, 10, false, 4)))
}

func TestFloatingWindowIgnored(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.handleWindowOpened(context.Background(), openedEvent(1, 10, true, 0)))
}

func TestKnownWindowChangeDoesNotRetile(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "100%").Return(nil)
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))

	// Same window re-announced: no further actions expected.
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))
}

func TestCloseLeavingOneMaximizesRemainder(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "100%").Return(nil)
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))
	actions.EXPECT().SetWindowWidth(gomock.Any(), gomock.Any(), "50%").Return(nil).Times(2)
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(2, 10, false, 2)))

	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(1), "100%").Return(nil)
	require.NoError(t, m.handleWindowClosed(ctx, closedEvent(2)))
}

func TestCloseUnknownWindowIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.handleWindowClosed(context.Background(), closedEvent(99)))
}

func TestWindowsChangedReplacesState(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	snapshot := niri.Event{
		Tag: niri.WindowsChanged,
		Payload: json.RawMessage(`{"windows":[
			{"id":5,"workspace_id":10,"is_floating":false,"layout":{"pos_in_scrolling_layout":[1,1]}},
			{"id":6,"workspace_id":10,"is_floating":false,"layout":{"pos_in_scrolling_layout":[2,1]}}
		]}`),
	}
	require.NoError(t, m.handleWindowsChanged(ctx, snapshot))

	// Closing one of the snapshot windows leaves one, which is maximized.
	actions.EXPECT().SetWindowWidth(gomock.Any(), uint64(5), "100%").Return(nil)
	require.NoError(t, m.handleWindowClosed(ctx, closedEvent(6)))
}

func TestLayoutsChangedUpdatesColumns(t *testing.T) {
	m, actions := newTestManager(t)
	ctx := context.Background()

	actions.EXPECT().SetWindowWidth(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(1, 10, false, 1)))
	require.NoError(t, m.handleWindowOpened(ctx, openedEvent(2, 10, false, 1)))

	moved := niri.Event{
		Tag:     niri.WindowLayoutsChanged,
		Payload: json.RawMessage(`{"changes":[[2,{"pos_in_scrolling_layout":[2,1]}]]}`),
	}
	require.NoError(t, m.handleLayoutsChanged(ctx, moved))

	win := m.windows[2]
	require.Equal(t, []int{2, 1}, win.Layout.PosInScrollingLayout)
}

func TestMalformedPayloadReturnsError(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.handleWindowOpened(context.Background(), niri.Event{
		Tag:     niri.WindowOpenedOrChanged,
		Payload: json.RawMessage(`{broken`),
	})
	require.Error(t, err)
}
