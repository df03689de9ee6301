package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playnexus/spinwheel/internal/model"
	"github.com/playnexus/spinwheel/internal/service"
)

// mockRow implements pgx.Row for testing single-row queries.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockRows implements pgx.Rows backed by a fixed result set.
type mockRows struct {
	data [][]any
	pos  int
}

func (m *mockRows) Next() bool {
	m.pos++
	return m.pos <= len(m.data)
}

func (m *mockRows) Scan(dest ...any) error {
	row := m.data[m.pos-1]
	for i, src := range row {
		switch d := dest[i].(type) {
		case *int:
			*d = src.(int)
		case *int64:
			*d = src.(int64)
		case *string:
			*d = src.(string)
		case *model.SliceType:
			*d = src.(model.SliceType)
		default:
			return errors.New("unsupported scan destination")
		}
	}
	return nil
}

func (m *mockRows) Close()                                       {}
func (m *mockRows) Err() error                                   { return nil }
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// mockPool implements PoolInterface for testing.
type mockPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func testCampaign() *model.Campaign {
	return &model.Campaign{
		ID:              uuid.New(),
		Name:            "summer-launch",
		Status:          model.StatusDraft,
		TotalBudget:     500000,
		BudgetRemaining: 500000,
		Mode:            model.ModeManual,
		SpinsPerWindow:  -1,
	}
}

func TestCampaignRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)
	c := testCampaign()

	err := repo.Insert(context.Background(), mock, c)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO campaigns")
	assert.Contains(t, capturedSQL, "VALUES ($1, $2, $3, $4, 0, $4, 0", "spent and spin counters start at zero, remaining at total")
	assert.Equal(t, c.ID, capturedArgs[0])
	assert.Equal(t, "summer-launch", capturedArgs[1])
	assert.Equal(t, model.StatusDraft, capturedArgs[2])
	assert.Equal(t, int64(500000), capturedArgs[3])
	assert.Equal(t, model.ModeManual, capturedArgs[4])
}

func TestCampaignRepository_Insert_DuplicateName(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			// Simulate PostgreSQL unique violation error (code 23505)
			pgErr := &pgconn.PgError{
				Code:    "23505",
				Message: "duplicate key value violates unique constraint",
			}
			return pgconn.CommandTag{}, pgErr
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), mock, testCampaign())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCampaignExists), "should return ErrCampaignExists for duplicate")
}

func TestCampaignRepository_Insert_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), mock, testCampaign())

	require.Error(t, err)
	assert.False(t, errors.Is(err, service.ErrCampaignExists))
	assert.Contains(t, err.Error(), "insert campaign")
}

func TestCampaignRepository_InsertSlices(t *testing.T) {
	var calls [][]any
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			assert.Contains(t, sql, "INSERT INTO slices")
			calls = append(calls, arguments)
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)
	campaignID := uuid.New()
	slices := []model.RewardSlice{
		{Index: 0, Type: model.SliceLose, Label: "nothing", Cost: 0, MaxWins: -1},
		{Index: 1, Type: model.SliceCash, Label: "$5", Cost: 500, MaxWins: 10},
	}

	err := repo.InsertSlices(context.Background(), mock, campaignID, slices)

	require.NoError(t, err)
	require.Len(t, calls, 2, "one insert per slice")
	assert.Equal(t, campaignID, calls[0][0])
	assert.Equal(t, 0, calls[0][1])
	assert.Equal(t, 1, calls[1][1])
	assert.Equal(t, int64(500), calls[1][4])
	assert.Equal(t, 10, calls[1][6])
}

func TestCampaignRepository_InsertSlices_Error(t *testing.T) {
	dbErr := errors.New("constraint violated")
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, dbErr
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	err := repo.InsertSlices(context.Background(), mock, uuid.New(), []model.RewardSlice{{Index: 0}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert slice 0")
}

func TestCampaignRepository_GetByID_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	c, err := repo.GetByID(context.Background(), uuid.New())

	require.NoError(t, err, "not found is not an error at the repository layer")
	assert.Nil(t, c)
}

func TestCampaignRepository_GetByID_Success(t *testing.T) {
	id := uuid.New()
	now := time.Now()
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			assert.Contains(t, sql, "FROM campaigns WHERE id = $1")
			assert.NotContains(t, sql, "FOR UPDATE")
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*uuid.UUID) = id
				*dest[1].(*string) = "summer-launch"
				*dest[2].(*model.CampaignStatus) = model.StatusLive
				*dest[3].(*int64) = 500000
				*dest[4].(*int64) = 120000
				*dest[5].(*int64) = 380000
				*dest[6].(*int64) = 240
				*dest[7].(*model.PacingMode) = model.ModeAuto
				*dest[8].(*int64) = 1000
				*dest[12].(*int) = -1
				*dest[14].(*time.Time) = now
				return nil
			}}
		},
		queryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			assert.Contains(t, sql, "ORDER BY idx")
			return &mockRows{data: [][]any{
				{0, model.SliceLose, "nothing", int64(0), "", -1, 0},
				{1, model.SliceCash, "$5", int64(500), "#ffd700", -1, 3},
			}}, nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	c, err := repo.GetByID(context.Background(), id)

	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, id, c.ID)
	assert.Equal(t, model.StatusLive, c.Status)
	assert.Equal(t, int64(380000), c.BudgetRemaining)
	require.Len(t, c.Slices, 2)
	assert.Equal(t, model.SliceCash, c.Slices[1].Type)
	assert.Equal(t, int64(500), c.Slices[1].Cost)
	assert.Equal(t, 3, c.Slices[1].CurrentWins)
}

func TestCampaignRepository_GetForUpdate(t *testing.T) {
	id := uuid.New()
	var capturedSQL string
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*uuid.UUID) = id
				*dest[2].(*model.CampaignStatus) = model.StatusLive
				*dest[5].(*int64) = 30
				return nil
			}}
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	c, err := repo.GetForUpdate(context.Background(), mock, id)

	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Contains(t, capturedSQL, "FOR UPDATE")
	assert.Equal(t, int64(30), c.BudgetRemaining)
	assert.Nil(t, c.Slices, "the locked read loads the ledger only")
}

func TestCampaignRepository_GetForUpdate_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	c, err := repo.GetForUpdate(context.Background(), mock, uuid.New())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCampaignNotFound))
	assert.Nil(t, c)
}

func TestCampaignRepository_ApplySpin(t *testing.T) {
	var sqls []string
	var argss [][]any
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			sqls = append(sqls, sql)
			argss = append(argss, arguments)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)
	campaignID := uuid.New()

	err := repo.ApplySpin(context.Background(), mock, campaignID, 2, 500)

	require.NoError(t, err)
	require.Len(t, sqls, 2)
	assert.Contains(t, sqls[0], "budget_spent = budget_spent + $2")
	assert.Contains(t, sqls[0], "budget_remaining = budget_remaining - $2")
	assert.Contains(t, sqls[0], "total_spins = total_spins + 1")
	assert.Equal(t, []any{campaignID, int64(500)}, argss[0])
	assert.Contains(t, sqls[1], "current_wins = current_wins + 1")
	assert.Equal(t, []any{campaignID, 2}, argss[1])
}

func TestCampaignRepository_Reset_Success(t *testing.T) {
	var sqls []string
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			sqls = append(sqls, sql)
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	err := repo.Reset(context.Background(), mock, uuid.New())

	require.NoError(t, err)
	require.Len(t, sqls, 2)
	assert.Contains(t, sqls[0], "budget_spent = 0")
	assert.Contains(t, sqls[0], "budget_remaining = total_budget")
	assert.Contains(t, sqls[1], "current_wins = 0")
}

func TestCampaignRepository_Reset_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	err := repo.Reset(context.Background(), mock, uuid.New())

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCampaignNotFound))
}

func TestCampaignRepository_UpdateStatus(t *testing.T) {
	var capturedArgs []any
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedArgs = arguments
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)
	id := uuid.New()

	err := repo.UpdateStatus(context.Background(), id, model.StatusLive)

	require.NoError(t, err)
	assert.Equal(t, []any{id, model.StatusLive}, capturedArgs)
}

func TestCampaignRepository_UpdateStatus_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	repo := NewCampaignRepositoryWithPool(mock)

	err := repo.UpdateStatus(context.Background(), uuid.New(), model.StatusEnded)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCampaignNotFound))
}
