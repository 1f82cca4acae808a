package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/paystream/internal/audit"
	"github.com/baharkarakas/paystream/internal/auth"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/repository/memory"
	"github.com/baharkarakas/paystream/internal/services"
)

const bankYAML = `
banks:
  - name: First Bank
    branch_code: BR001
    address: 1 Main St
  - name: Closed Bank
    branch_code: BR099
    active: false
`

func TestParseBankFile(t *testing.T) {
	banks, err := parseBankFile([]byte(bankYAML))
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "BR001", banks[0].BranchCode)
	assert.Equal(t, "1 Main St", banks[0].Address)
	assert.Nil(t, banks[0].Active)
	require.NotNil(t, banks[1].Active)
	assert.False(t, *banks[1].Active)

	_, err = parseBankFile([]byte("banks: []"))
	assert.Error(t, err)
	_, err = parseBankFile([]byte("banks: [unterminated"))
	assert.Error(t, err)
}

func TestSeedBanks(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	svc := services.NewBankService(store, audit.NewRecorder(log), log)
	banks, err := parseBankFile([]byte(bankYAML))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, seedBanks(context.Background(), svc, "t1", banks, &out, log))
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))

	active, err := svc.ListActive(context.Background(), identity.New("t1", "vic", "", identity.RoleViewer))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "BR001", active[0].BranchCode)

	// a second run hits the unique branch codes
	err = seedBanks(context.Background(), svc, "t1", banks, io.Discard, log)
	assert.EqualError(t, err, "2 of 2 banks not seeded")

	assert.Error(t, seedBanks(context.Background(), svc, "", banks, io.Discard, log))
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_REFRESH_SECRET", "cli-refresh")
	t.Setenv("JWT_ISSUER", "paystream")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--tenant", "t1", "--user", "bob", "--roles", "TRANSACTION_APPROVER"})
	require.NoError(t, cmd.Execute())

	var got map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	tm := auth.NewTokenManager("cli-secret", "cli-refresh", "paystream", 0, 0)
	claims, isRefresh, err := tm.ParseAny(got["access_token"])
	require.NoError(t, err)
	assert.False(t, isRefresh)
	assert.Equal(t, "bob", claims.UserID)
	assert.Equal(t, []string{"TRANSACTION_APPROVER"}, claims.Roles)
}

func TestTokenCommandNeedsUser(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"token", "--tenant", "t1"})
	assert.Error(t, cmd.Execute())
}
