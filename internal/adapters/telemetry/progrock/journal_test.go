package progrock_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	vprogrock "github.com/vito/progrock"
	"go.trai.ch/devshell/internal/adapters/telemetry/progrock"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestJournal_WriteStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	gomock.InOrder(
		log.EXPECT().Log(domain.LogLevelDebug, "vertex done: uv sync"),
		log.EXPECT().Log(domain.LogLevelDebug, "vertex failed: pytest: exit status 1"),
		log.EXPECT().Log(domain.LogLevelDebug, "vertex cached: materialize x86_64-linux"),
	)

	journal := progrock.NewJournal(log)
	now := timestamppb.Now()
	failure := "exit status 1"

	require.NoError(t, journal.WriteStatus(&vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{
		{Id: "1", Name: "uv sync", Completed: now},
		{Id: "2", Name: "pending"},
		{Id: "3", Name: "pytest", Completed: now, Error: &failure},
		{Id: "4", Name: "internal", Completed: now, Internal: true},
	}}))

	// Completed vertices are reported once.
	require.NoError(t, journal.WriteStatus(&vprogrock.StatusUpdate{Vertexes: []*vprogrock.Vertex{
		{Id: "1", Name: "uv sync", Completed: now},
		{Id: "5", Name: "materialize x86_64-linux", Completed: now, Cached: true},
	}}))

	require.NoError(t, journal.Close())
}
