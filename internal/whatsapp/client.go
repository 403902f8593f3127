package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/wealth-builder/config"
	"github.com/user/wealth-builder/internal/game"
	"github.com/user/wealth-builder/internal/interfaces"
	"github.com/user/wealth-builder/internal/types"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

const historyLimit = 5

// ClientManager handles WhatsApp client connections and turns chat commands
// into game manager calls. Players are keyed by their phone number.
type ClientManager struct {
	clients     map[string]*ClientInfo
	gameManager interfaces.GameManager
	formatter   *MessageFormatter
	config      config.Config
	logger      *zap.Logger
	mutex       sync.RWMutex
}

// ClientInfo holds information about a WhatsApp client connection
type ClientInfo struct {
	UUID        string
	PhoneNumber string
	Client      *whatsmeow.Client
	Store       *store.Device
}

var _ interfaces.MessageSender = (*ClientManager)(nil)

// NewClientManager creates a new WhatsApp client manager and reconnects the
// devices paired in earlier runs
func NewClientManager(gameManager interfaces.GameManager, cfg config.Config, logger *zap.Logger) *ClientManager {
	cm := &ClientManager{
		clients:     make(map[string]*ClientInfo),
		gameManager: gameManager,
		formatter:   NewMessageFormatter(),
		config:      cfg,
		logger:      logger,
	}

	cm.restoreExistingSessions()

	return cm
}

func (cm *ClientManager) storePath(phoneNumber, sessionID string) string {
	return fmt.Sprintf("file:%s/store_%s_%s.db?_foreign_keys=on", cm.config.WhatsApp.StoreDir, phoneNumber, sessionID)
}

// openDevice opens the device store behind dsn. A fresh device is created
// when fresh is set or nothing was paired there yet.
func (cm *ClientManager) openDevice(dsn string, fresh bool) (*whatsmeow.Client, *store.Device, error) {
	container, err := sqlstore.New("sqlite3", dsn, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var deviceStore *store.Device
	if !fresh {
		deviceStore, err = container.GetFirstDevice()
	}
	if fresh || err != nil {
		deviceStore = container.NewDevice()
	}

	store.DeviceProps.RequireFullSync = proto.Bool(false)
	store.DeviceProps.Os = proto.String(cm.config.WhatsApp.ClientName)

	client := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))
	client.AddEventHandler(cm.handleWhatsAppEvent)
	return client, deviceStore, nil
}

func (cm *ClientManager) register(sessionID, phoneNumber string, client *whatsmeow.Client, deviceStore *store.Device) {
	cm.mutex.Lock()
	cm.clients[phoneNumber] = &ClientInfo{
		UUID:        sessionID,
		PhoneNumber: phoneNumber,
		Client:      client,
		Store:       deviceStore,
	}
	cm.mutex.Unlock()
}

// restoreExistingSessions reconnects the newest paired store of every bot
// number and removes the older ones
func (cm *ClientManager) restoreExistingSessions() {
	if err := os.MkdirAll(cm.config.WhatsApp.StoreDir, 0755); err != nil {
		cm.logger.Error("Failed to create store directory", zap.Error(err))
		return
	}

	files, err := filepath.Glob(filepath.Join(cm.config.WhatsApp.StoreDir, "store_*.db"))
	if err != nil {
		cm.logger.Error("Failed to scan for existing sessions", zap.Error(err))
		return
	}

	type candidate struct {
		file      string
		sessionID string
		modTime   time.Time
	}
	latest := make(map[string]candidate)
	for _, file := range files {
		phoneNumber, sessionID, ok := parseStoreFilename(filepath.Base(file))
		if !ok {
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			cm.logger.Error("Failed to get file info", zap.String("file", file), zap.Error(err))
			continue
		}
		if current, exists := latest[phoneNumber]; !exists || info.ModTime().After(current.modTime) {
			latest[phoneNumber] = candidate{file: file, sessionID: sessionID, modTime: info.ModTime()}
		}
	}

	for phoneNumber, newest := range latest {
		for _, file := range files {
			if strings.Contains(file, "store_"+phoneNumber+"_") && file != newest.file {
				if err := os.Remove(file); err != nil {
					cm.logger.Error("Failed to remove old session file", zap.String("file", file), zap.Error(err))
				}
			}
		}

		client, deviceStore, err := cm.openDevice(cm.storePath(phoneNumber, newest.sessionID), false)
		if err != nil {
			cm.logger.Error("Failed to open session store",
				zap.String("phoneNumber", phoneNumber),
				zap.Error(err))
			continue
		}
		cm.register(newest.sessionID, phoneNumber, client, deviceStore)

		if client.Store.ID == nil {
			cm.logger.Info("Session requires QR code login", zap.String("phoneNumber", phoneNumber))
			continue
		}

		go func(phone string, cli *whatsmeow.Client) {
			if err := cli.Connect(); err != nil {
				cm.logger.Error("Failed to connect restored client",
					zap.String("phoneNumber", phone),
					zap.Error(err))
				return
			}
			cm.logger.Info("Successfully connected restored client", zap.String("phoneNumber", phone))
		}(phoneNumber, client)
	}
}

// SetupClient initializes a WhatsApp client for a bot number
func (cm *ClientManager) SetupClient(sessionID, phoneNumber string) (*whatsmeow.Client, error) {
	if err := os.MkdirAll(cm.config.WhatsApp.StoreDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	client, deviceStore, err := cm.openDevice(cm.storePath(phoneNumber, sessionID), false)
	if err != nil {
		return nil, err
	}
	cm.register(sessionID, phoneNumber, client, deviceStore)
	return client, nil
}

// GetClient retrieves a WhatsApp client by phone number, reconnecting it if needed
func (cm *ClientManager) GetClient(phoneNumber string) (*whatsmeow.Client, bool) {
	cm.mutex.RLock()
	clientInfo, exists := cm.clients[phoneNumber]
	cm.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if !clientInfo.Client.IsConnected() && clientInfo.Store.ID != nil {
		if err := clientInfo.Client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phoneNumber", phoneNumber),
				zap.Error(err))
			return nil, false
		}
		cm.logger.Info("Successfully reconnected client", zap.String("phoneNumber", phoneNumber))
	}

	return clientInfo.Client, true
}

// GetQRChannel replaces any client of phoneNumber with a fresh device and
// returns the channel its pairing codes arrive on
func (cm *ClientManager) GetQRChannel(phoneNumber string) (<-chan whatsmeow.QRChannelItem, error) {
	cm.mutex.Lock()
	if clientInfo, exists := cm.clients[phoneNumber]; exists {
		clientInfo.Client.Disconnect()
		delete(cm.clients, phoneNumber)
	}
	cm.mutex.Unlock()

	sessionID := uuid.New().String()
	client, deviceStore, err := cm.openDevice(cm.storePath(phoneNumber, sessionID), true)
	if err != nil {
		return nil, err
	}

	qrChan, err := client.GetQRChannel(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get QR channel: %w", err)
	}
	cm.register(sessionID, phoneNumber, client, deviceStore)

	go func() {
		if err := client.Connect(); err != nil {
			cm.logger.Error("Failed to connect client",
				zap.String("phoneNumber", phoneNumber),
				zap.Error(err))
			return
		}
		cm.logger.Info("Client connected successfully", zap.String("phoneNumber", phoneNumber))
	}()

	return qrChan, nil
}

// Disconnect closes a specific WhatsApp connection
func (cm *ClientManager) Disconnect(phoneNumber string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	clientInfo, exists := cm.clients[phoneNumber]
	if !exists {
		return fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}

	clientInfo.Client.Disconnect()
	delete(cm.clients, phoneNumber)
	return nil
}

// DisconnectAll closes all WhatsApp connections
func (cm *ClientManager) DisconnectAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for phoneNumber, clientInfo := range cm.clients {
		if clientInfo.Client != nil {
			clientInfo.Client.Disconnect()
			cm.logger.Info("Disconnected client", zap.String("phoneNumber", phoneNumber))
		}
	}

	cm.clients = make(map[string]*ClientInfo)
}

// IsLoggedIn checks if a client is logged in
func (cm *ClientManager) IsLoggedIn(phoneNumber string) (bool, error) {
	client, exists := cm.GetClient(phoneNumber)
	if !exists {
		return false, fmt.Errorf("client not found for phone number: %s", phoneNumber)
	}
	return client.IsLoggedIn(), nil
}

// botClient picks the client that answers players when no bot number is given
func (cm *ClientManager) botClient() (*whatsmeow.Client, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var fallback *whatsmeow.Client
	for _, clientInfo := range cm.clients {
		if clientInfo.Client == nil {
			continue
		}
		if clientInfo.Client.IsLoggedIn() {
			return clientInfo.Client, true
		}
		if fallback == nil {
			fallback = clientInfo.Client
		}
	}
	return fallback, fallback != nil
}

// SendMessage sends a text message to a player. An empty phoneNumber sends
// from whichever bot number is connected.
func (cm *ClientManager) SendMessage(phoneNumber, recipient, message string) (string, error) {
	var (
		client *whatsmeow.Client
		exists bool
	)
	if phoneNumber == "" {
		client, exists = cm.botClient()
	} else {
		client, exists = cm.GetClient(phoneNumber)
	}
	if !exists {
		return "", fmt.Errorf("client not found for phone number: %q", phoneNumber)
	}

	recipientJID, err := parseJID(recipient)
	if err != nil {
		return "", err
	}
	return send(client, recipientJID, message)
}

func send(client *whatsmeow.Client, to waTypes.JID, message string) (string, error) {
	response, err := client.SendMessage(context.Background(), to, &waProto.Message{
		Conversation: proto.String(message),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return response.ID, nil
}

// handleWhatsAppEvent processes incoming WhatsApp events
func (cm *ClientManager) handleWhatsAppEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		cm.handleIncomingMessage(v)
	case *events.Connected:
		cm.logger.Info("WhatsApp client connected")
	case *events.Disconnected:
		cm.logger.Info("WhatsApp client disconnected")
	case *events.LoggedOut:
		cm.logger.Warn("WhatsApp client logged out", zap.String("reason", v.Reason.String()))
	}
}

// extractCommand returns the command text of a chat message. Group chats
// only address the bot with a leading "/ ".
func extractCommand(content string, isGroup bool) (string, bool) {
	content = strings.TrimSpace(content)
	if isGroup {
		if !strings.HasPrefix(content, "/ ") {
			return "", false
		}
		return "/" + strings.TrimPrefix(content, "/ "), true
	}
	return content, strings.HasPrefix(content, "/")
}

// handleIncomingMessage answers a player's command in the chat it came from
func (cm *ClientManager) handleIncomingMessage(message *events.Message) {
	if message.Info.MessageSource.IsFromMe {
		return
	}

	content := message.Message.GetConversation()
	if content == "" {
		content = message.Message.GetExtendedTextMessage().GetText()
	}

	command, ok := extractCommand(content, message.Info.Chat.Server == waTypes.GroupServer)
	if !ok {
		return
	}

	cm.logger.Debug("Received message",
		zap.String("content", command),
		zap.String("sender", message.Info.Sender.User),
		zap.String("chat", message.Info.Chat.User))

	response := cm.processGameCommand(message.Info.Sender.User, command)
	if response == "" {
		return
	}

	client, exists := cm.botClient()
	if !exists {
		cm.logger.Error("No client available to send response")
		return
	}
	if _, err := send(client, message.Info.Chat, response); err != nil {
		cm.logger.Error("Failed to send response",
			zap.String("sender", message.Info.Sender.User),
			zap.Error(err))
	}
}

// processGameCommand runs one chat command for sender and returns the reply
func (cm *ClientManager) processGameCommand(sender, command string) string {
	command = cleanCommand(command)
	if !strings.HasPrefix(command, "/") {
		return "Commands start with '/'. Type */help* to see them."
	}

	args := strings.Fields(strings.TrimPrefix(command, "/"))
	if len(args) == 0 {
		return cm.handleHelpCommand()
	}
	name, args := args[0], args[1:]

	switch name {
	case "help", "?":
		return cm.handleHelpCommand()
	case "start", "new", "play":
		return cm.handleStartCommand(sender, args)
	case "status", "s", "portfolio":
		return cm.handleStatusCommand(sender)
	case "invest":
		return cm.handlePooledCommand(sender, args, true)
	case "withdraw":
		return cm.handlePooledCommand(sender, args, false)
	case "buy":
		return cm.handleTradeCommand(sender, args, true)
	case "sell":
		return cm.handleTradeCommand(sender, args, false)
	case "pay":
		return cm.handlePayCommand(sender, args)
	case "pause":
		return cm.handlePauseCommand(sender, true)
	case "resume":
		return cm.handlePauseCommand(sender, false)
	case "market":
		return cm.handleMarketCommand(sender, args)
	case "assets":
		return cm.handleAssetsCommand()
	case "history":
		return cm.handleHistoryCommand(sender)
	case "reset":
		return cm.handleResetCommand(sender)
	default:
		return fmt.Sprintf("Unknown command */%s* 🤔\nType */help* to see what you can do.", name)
	}
}

func (cm *ClientManager) handleStartCommand(sender string, args []string) string {
	difficulty := types.Difficulty("")
	if len(args) > 0 {
		d, ok := types.ParseDifficulty(args[0])
		if !ok {
			return "Pick a difficulty: */start easy*, */start medium* or */start hard*"
		}
		difficulty = d
	}

	state, err := cm.gameManager.StartGame(sender, difficulty)
	if err != nil {
		return describeError(err)
	}

	minutes := state.DurationMs / time.Minute.Milliseconds()
	return fmt.Sprintf("🎮 *WEALTH BUILDER* started on *%s*!\n\n"+
		"You have %s in cash and earn %s a year.\n"+
		"Ten simulated years pass in about %d minutes. Beat the AI investor's net worth to win.\n\n"+
		"Type */market* to see prices and */help* for every command.",
		state.Difficulty, FormatRupees(state.Cash), FormatRupees(state.Salary), minutes)
}

func (cm *ClientManager) handleStatusCommand(sender string) string {
	state, err := cm.gameManager.GetState(sender)
	if err != nil {
		return describeError(err)
	}
	return cm.formatter.FormatStatus(state)
}

func (cm *ClientManager) handlePooledCommand(sender string, args []string, invest bool) string {
	verb := "withdraw"
	if invest {
		verb = "invest"
	}
	if len(args) != 2 {
		return fmt.Sprintf("Use: */%s [asset] [amount]*\nExample: */%s indexfund 50000*\nType */assets* to list them.", verb, verb)
	}

	spec, ok := lookupAsset(args[0])
	if !ok {
		return describeError(game.ErrUnknownAsset)
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return fmt.Sprintf("*%s* is not an amount 🧐", args[1])
	}

	var state types.StateView
	if invest {
		state, err = cm.gameManager.Invest(sender, spec.ID, amount)
	} else {
		state, err = cm.gameManager.Withdraw(sender, spec.ID, amount)
	}
	if err != nil {
		return describeError(err)
	}

	held := state.Holding(spec.ID)
	return fmt.Sprintf("✅ %s %s\n%s now holds %s\nCash: %s",
		strings.Title(verb), FormatRupees(amount), spec.Name, FormatRupees(held.Value), FormatRupees(state.Cash))
}

func (cm *ClientManager) handleTradeCommand(sender string, args []string, buy bool) string {
	verb := "sell"
	if buy {
		verb = "buy"
	}

	var (
		class    types.AssetClass
		symbol   string
		quantity string
	)
	switch len(args) {
	case 2:
		symbol, quantity = args[0], args[1]
	case 3:
		c, ok := parseClass(args[0])
		if !ok {
			return "Classes are *stock*, *crypto* and *realestate*."
		}
		class, symbol, quantity = c, args[1], args[2]
	default:
		return fmt.Sprintf("Use: */%s [symbol] [quantity]*\nExample: */%s tcs 2* or */%s crypto btc 0.5*", verb, verb, verb)
	}

	spec, ok := lookupAsset(symbol)
	if !ok {
		return describeError(game.ErrUnknownAsset)
	}
	if class == "" {
		class = spec.Class
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return fmt.Sprintf("*%s* is not a quantity 🧐", quantity)
	}

	var state types.StateView
	if buy {
		state, err = cm.gameManager.Buy(sender, class, spec.ID, qty)
	} else {
		state, err = cm.gameManager.Sell(sender, class, spec.ID, qty)
	}
	if err != nil {
		return describeError(err)
	}

	price := decimal.Zero
	if inst, ok := state.Instrument(spec.ID); ok {
		price = inst.CurrentPrice
	}
	return fmt.Sprintf("✅ %s %s %s @ %s\nYou own %s units\nCash: %s",
		strings.Title(verb), qty.String(), spec.ID, FormatRupees(price), state.Holding(spec.ID).Quantity.String(), FormatRupees(state.Cash))
}

func (cm *ClientManager) handlePayCommand(sender string, args []string) string {
	if len(args) != 1 || (args[0] != "cash" && args[0] != "investments") {
		return "Use: */pay cash* or */pay investments*"
	}

	state, err := cm.gameManager.GetState(sender)
	if err != nil {
		return describeError(err)
	}
	eventID := ""
	if state.CurrentEvent != nil {
		eventID = state.CurrentEvent.ID
	}

	state, err = cm.gameManager.PayExpense(sender, eventID, args[0] == "investments")
	if err != nil {
		return describeError(err)
	}
	return fmt.Sprintf("✅ Expense paid. Cash: %s, net worth: %s\nThe clock is running again.",
		FormatRupees(state.Cash), FormatRupees(state.NetWorth))
}

func (cm *ClientManager) handlePauseCommand(sender string, paused bool) string {
	state, err := cm.gameManager.SetPaused(sender, paused)
	if err != nil {
		return describeError(err)
	}
	if paused {
		return "⏸️ Game paused. Type */resume* to continue."
	}
	if state.Paused {
		return "An expense is still waiting. Reply */pay cash* or */pay investments*"
	}
	return "▶️ Game resumed."
}

func (cm *ClientManager) handleMarketCommand(sender string, args []string) string {
	class := types.AssetClass("")
	if len(args) > 0 {
		c, ok := parseClass(args[0])
		if !ok {
			return "Classes are *stock*, *crypto* and *realestate*."
		}
		class = c
	}

	state, err := cm.gameManager.GetState(sender)
	if err != nil {
		return describeError(err)
	}
	return cm.formatter.FormatMarket(state, class)
}

func (cm *ClientManager) handleAssetsCommand() string {
	var b strings.Builder
	b.WriteString("💼 *ASSETS*\n\nInvest or withdraw any amount:\n")
	for _, spec := range types.AssetsOfClass(types.ClassTraditional) {
		fmt.Fprintf(&b, "• *%s* %s (~%.0f%%/yr)\n", strings.ToLower(string(spec.ID)), spec.Name, spec.AnnualRate*100)
	}
	b.WriteString("\nBuy or sell units:\n")
	for _, spec := range types.Catalog() {
		if spec.Tradable() {
			fmt.Fprintf(&b, "• *%s* %s (%s)\n", spec.ID, spec.Name, spec.Class)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (cm *ClientManager) handleHistoryCommand(sender string) string {
	results, err := cm.gameManager.History(context.Background(), sender, historyLimit)
	if err != nil {
		cm.logger.Error("Failed to load history", zap.String("sender", sender), zap.Error(err))
		return "Could not load your past games right now 😓"
	}
	return cm.formatter.FormatHistory(results)
}

func (cm *ClientManager) handleResetCommand(sender string) string {
	if err := cm.gameManager.ResetGame(sender); err != nil {
		return describeError(err)
	}
	return "Game abandoned. Type */start* to play again."
}

// handleHelpCommand returns help information
func (cm *ClientManager) handleHelpCommand() string {
	return "🎮 *WEALTH BUILDER* COMMANDS\n\n" +
		"*/start [easy|medium|hard]* - start a new game\n" +
		"*/status* - cash, net worth and holdings\n" +
		"*/market [stock|crypto|realestate]* - current prices\n" +
		"*/assets* - everything you can own\n\n" +
		"*/invest [asset] [amount]* - e.g. */invest fixeddeposit 50000*\n" +
		"*/withdraw [asset] [amount]*\n" +
		"*/buy [symbol] [quantity]* - e.g. */buy tcs 2*\n" +
		"*/sell [symbol] [quantity]*\n\n" +
		"*/pay cash* or */pay investments* - settle an expense\n" +
		"*/pause* and */resume*\n" +
		"*/history* - your past games\n" +
		"*/reset* - abandon the current game\n\n" +
		"Amounts take k and l suffixes: 50k, 2.5l"
}

// describeError turns manager errors into chat replies
func describeError(err error) string {
	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrNotStarted):
		return "You have no game running. Type */start* to begin! 🚀"
	case errors.Is(err, game.ErrGameOver):
		return "This game is over 🏁 Type */start* to play again or */history* to see your results."
	case errors.Is(err, game.ErrEventPending):
		return "An expense is waiting. Reply */pay cash* or */pay investments* first."
	case errors.Is(err, game.ErrNoPendingEvent), errors.Is(err, game.ErrEventMismatch):
		return "There is nothing to pay right now."
	case errors.Is(err, game.ErrUnknownAsset):
		return "I don't know that asset 🤔 Type */assets* to list them."
	case errors.Is(err, game.ErrInsufficientCash):
		return "Not enough cash for that 💸"
	case errors.Is(err, game.ErrInsufficientHoldings), errors.Is(err, game.ErrInsufficientUnits):
		return "You don't hold that much."
	case game.IsRejection(err):
		return "Can't do that: " + err.Error()
	default:
		return "Something went wrong 😱 Try again in a moment."
	}
}

// lookupAsset matches an asset id or ticker regardless of case
func lookupAsset(input string) (types.AssetSpec, bool) {
	for _, spec := range types.Catalog() {
		if strings.EqualFold(string(spec.ID), input) {
			return spec, true
		}
	}
	return types.AssetSpec{}, false
}

func parseClass(input string) (types.AssetClass, bool) {
	switch input {
	case "stock", "stocks":
		return types.ClassStock, true
	case "crypto":
		return types.ClassCrypto, true
	case "realestate", "property":
		return types.ClassRealEstate, true
	}
	return "", false
}

// parseAmount reads rupee amounts such as 50000, 50,000, ₹50000, 50k or 2.5l
func parseAmount(input string) (decimal.Decimal, error) {
	input = strings.TrimPrefix(strings.ReplaceAll(input, ",", ""), "₹")

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(input, "k"):
		multiplier, input = 1000, strings.TrimSuffix(input, "k")
	case strings.HasSuffix(input, "l"):
		multiplier, input = 100000, strings.TrimSuffix(input, "l")
	}

	amount, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(decimal.NewFromInt(multiplier)), nil
}

// cleanCommand normalizes and cleans a command string
func cleanCommand(command string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	return strings.Join(strings.Fields(command), " ")
}

// parseJID converts a phone number or full JID string to a WhatsApp JID
func parseJID(jidString string) (waTypes.JID, error) {
	if !strings.ContainsRune(jidString, '@') {
		if _, err := strconv.ParseUint(jidString, 10, 64); err != nil {
			return waTypes.JID{}, fmt.Errorf("invalid phone number: %s", jidString)
		}
		return waTypes.NewJID(jidString, waTypes.DefaultUserServer), nil
	}

	jid, err := waTypes.ParseJID(jidString)
	if err != nil {
		return waTypes.JID{}, fmt.Errorf("invalid JID: %w", err)
	}
	return jid, nil
}
