package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/types"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// QRCodeManager handles QR code generation and authentication
type QRCodeManager struct {
	clientManager *ClientManager
	config        config.Config
	logger        *zap.Logger
}

// NewQRCodeManager creates a new QR code manager
func NewQRCodeManager(clientManager *ClientManager, cfg config.Config, logger *zap.Logger) *QRCodeManager {
	return &QRCodeManager{
		clientManager: clientManager,
		config:        cfg,
		logger:        logger,
	}
}

// QRCodePath is where the PNG for a pairing attempt is written
func (qm *QRCodeManager) QRCodePath(phoneNumber, sessionID string) string {
	return filepath.Join(qm.config.WhatsApp.StoreDir, "qrcodes", fmt.Sprintf("%s_%s.png", phoneNumber, sessionID))
}

// GenerateQRCode pairs a new bot device. It returns the raw code and also
// writes it as a PNG under the store directory.
func (qm *QRCodeManager) GenerateQRCode(sessionID, phoneNumber string) (string, error) {
	client, exists := qm.clientManager.GetClient(phoneNumber)
	if !exists {
		var err error
		client, err = qm.clientManager.SetupClient(sessionID, phoneNumber)
		if err != nil {
			return "", fmt.Errorf("failed to set up client: %w", err)
		}
	}

	if client.IsLoggedIn() {
		return "", fmt.Errorf("client already logged in")
	}

	qrChan, err := client.GetQRChannel(context.Background())
	if err != nil {
		return "", fmt.Errorf("failed to get QR channel: %w", err)
	}

	if err := client.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}

	qrPath := qm.QRCodePath(phoneNumber, sessionID)
	if err := os.MkdirAll(filepath.Dir(qrPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create QR code directory: %w", err)
	}

	select {
	case evt := <-qrChan:
		if evt.Event != "code" {
			return "", fmt.Errorf("unexpected QR event: %s", evt.Event)
		}
		if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 256, qrPath); err != nil {
			return "", fmt.Errorf("failed to generate QR code image: %w", err)
		}

		qm.logger.Info("QR code generated",
			zap.String("phone_number", phoneNumber),
			zap.String("session_id", sessionID),
			zap.String("path", qrPath))
		return evt.Code, nil
	case <-time.After(60 * time.Second):
		return "", fmt.Errorf("timeout waiting for QR code")
	}
}

// QRCodePNG renders a pairing code as a PNG image
func QRCodePNG(code string, size int) ([]byte, error) {
	return qrcode.Encode(code, qrcode.Medium, size)
}

// SessionManager lists and removes the bot's paired devices
type SessionManager struct {
	storeDir string
	logger   *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(storeDir string, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		storeDir: storeDir,
		logger:   logger,
	}
}

// SessionInfo holds information about a WhatsApp session
type SessionInfo struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	JID         string    `json:"jid"`
	CreatedAt   time.Time `json:"created_at"`
}

// parseStoreFilename splits store_<phone>_<session>.db
func parseStoreFilename(name string) (phoneNumber, sessionID string, ok bool) {
	if !strings.HasPrefix(name, "store_") || !strings.HasSuffix(name, ".db") {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimSuffix(strings.TrimPrefix(name, "store_"), ".db"), "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ListSessions returns the paired sessions found in the store directory
func (sm *SessionManager) ListSessions() ([]SessionInfo, error) {
	if err := os.MkdirAll(sm.storeDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(sm.storeDir, "store_*.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(matches))
	for _, match := range matches {
		phoneNumber, sessionID, ok := parseStoreFilename(filepath.Base(match))
		if !ok {
			sm.logger.Warn("Failed to parse session filename", zap.String("path", match))
			continue
		}

		info, err := os.Stat(match)
		if err != nil {
			continue
		}

		container, err := sqlstore.New("sqlite3", "file:"+match+"?_foreign_keys=on", waLog.Stdout("Database", "ERROR", true))
		if err != nil {
			sm.logger.Warn("Failed to open session database", zap.String("path", match))
			continue
		}

		deviceStore, err := container.GetFirstDevice()
		if err != nil || deviceStore.ID == nil {
			sm.logger.Debug("Session is not paired", zap.String("path", match))
			continue
		}

		sessions = append(sessions, SessionInfo{
			ID:          sessionID,
			PhoneNumber: phoneNumber,
			JID:         deviceStore.ID.String(),
			CreatedAt:   info.ModTime().UTC(),
		})
	}

	return sessions, nil
}

// SaveSession persists session information next to the device store
func (sm *SessionManager) SaveSession(session SessionInfo) error {
	sessionsDir := filepath.Join(sm.storeDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := filepath.Join(sessionsDir, fmt.Sprintf("%s_%s.json", session.PhoneNumber, session.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// DeleteSession removes a WhatsApp session
func (sm *SessionManager) DeleteSession(phoneNumber, sessionID string) error {
	dbPath := filepath.Join(sm.storeDir, fmt.Sprintf("store_%s_%s.db", phoneNumber, sessionID))
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session database: %w", err)
	}

	infoPath := filepath.Join(sm.storeDir, "sessions", fmt.Sprintf("%s_%s.json", phoneNumber, sessionID))
	if err := os.Remove(infoPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session info: %w", err)
	}
	return nil
}

// MessageFormatter renders game state as chat messages
type MessageFormatter struct{}

// NewMessageFormatter creates a new message formatter
func NewMessageFormatter() *MessageFormatter {
	return &MessageFormatter{}
}

// FormatRupees prints an amount with Indian digit grouping, e.g. ₹12,34,567
func FormatRupees(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	digits := amount.Round(0).String()

	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		groups = append([]string{head}, groups...)
		digits = strings.Join(groups, ",") + "," + tail
	}
	return sign + "₹" + digits
}

func formatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func statusLabel(status types.SessionStatus) string {
	switch status {
	case types.StatusRunning:
		return "▶️ running"
	case types.StatusPaused:
		return "⏸️ paused"
	case types.StatusGameOver:
		return "🏁 game over"
	default:
		return "not started"
	}
}

// FormatStatus is the /status reply
func (mf *MessageFormatter) FormatStatus(state types.StateView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *WEALTH BUILDER* (%s)\n", state.Difficulty)
	fmt.Fprintf(&b, "Year %d, month %d · %s\n\n", state.Year, state.Month, statusLabel(state.Status))

	fmt.Fprintf(&b, "Cash: %s\n", FormatRupees(state.Cash))
	fmt.Fprintf(&b, "Net worth: %s\n", FormatRupees(state.NetWorth))
	fmt.Fprintf(&b, "AI net worth: %s\n", FormatRupees(state.AINetWorth))
	fmt.Fprintf(&b, "Salary: %s/year\n", FormatRupees(state.Salary))
	fmt.Fprintf(&b, "Passive income: %s/month\n", FormatRupees(state.PassiveIncome))

	held := false
	for _, h := range state.Holdings {
		if !h.Value.IsPositive() && !h.Quantity.IsPositive() {
			continue
		}
		if !held {
			b.WriteString("\n*HOLDINGS*\n")
			held = true
		}
		if h.Class.Tradable() {
			fmt.Fprintf(&b, "• %s: %s units, book %s, market %s\n",
				h.Asset, h.Quantity.String(), FormatRupees(h.Value), FormatRupees(h.MarketValue))
		} else {
			fmt.Fprintf(&b, "• %s: %s (profit %s)\n", h.Asset, FormatRupees(h.Value), FormatRupees(h.Profit))
		}
	}

	if event := state.CurrentEvent; event != nil && event.Kind == types.EventExpense {
		fmt.Fprintf(&b, "\n🚨 *%s* is waiting: %s\nReply */pay cash* or */pay investments*\n", event.Title, FormatRupees(event.Cost))
	}
	if state.Result != nil {
		b.WriteString("\n" + mf.FormatResult(*state.Result))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatMarket lists the tradables of one class, or all of them when class is empty
func (mf *MessageFormatter) FormatMarket(state types.StateView, class types.AssetClass) string {
	var b strings.Builder
	b.WriteString("📈 *MARKET*\n")

	current := types.AssetClass("")
	for _, inst := range state.Instruments {
		if class != "" && inst.Class != class {
			continue
		}
		if inst.Class != current {
			current = inst.Class
			fmt.Fprintf(&b, "\n*%s*\n", strings.ToUpper(string(current)))
		}
		fmt.Fprintf(&b, "• %s %s: %s (%s, %s/yr)\n",
			inst.ID, inst.Name, FormatRupees(inst.CurrentPrice), formatPct(inst.ChangePct), formatPct(inst.AnnualizedReturn))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatResult summarizes a finished game
func (mf *MessageFormatter) FormatResult(result types.Result) string {
	outcome := "lost to the AI"
	if result.Won {
		outcome = "beat the AI 🏆"
	}
	return fmt.Sprintf("%s: %s vs %s, %s, passive income %s/month",
		result.Difficulty, FormatRupees(result.FinalNetWorth), FormatRupees(result.AINetWorth), outcome, FormatRupees(result.PassiveIncome))
}

// FormatHistory is the /history reply
func (mf *MessageFormatter) FormatHistory(results []types.Result) string {
	if len(results) == 0 {
		return "No finished games yet. Type */start* to play one!"
	}

	var b strings.Builder
	b.WriteString("🏅 *PAST GAMES*\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n%s · %s", r.FinishedAt.Format("2006-01-02"), mf.FormatResult(r))
	}
	return b.String()
}
