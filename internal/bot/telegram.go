package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/analysis"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/nutrition"
	"github.com/MinHeokChoi/meal-agent-mvp/internal/store"
	"github.com/MinHeokChoi/meal-agent-mvp/pkg/logger"
)

const (
	StateStart    = "start"
	StateGender   = "gender"
	StateHeight   = "height"
	StateWeight   = "weight"
	StateGoal     = "goal"
	StateActivity = "activity"
	StateAge      = "age"
	StateConfirm  = "confirm"
	StateIdle     = "idle"
	StateMealType = "meal_type"
	StatePortion  = "portion"
)

var mealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

type TelegramBot struct {
	bot        *tgbotapi.BotAPI
	store      *store.Store
	analyzer   *analysis.Analyzer
	logger     *logger.Logger
	userStates map[int64]*models.UserState
	stateMutex sync.RWMutex
	httpClient *http.Client
}

func NewTelegramBot(token string, store *store.Store, analyzer *analysis.Analyzer, logger *logger.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Info("Authorized on Telegram", "username", bot.Self.UserName)

	return &TelegramBot{
		bot:        bot,
		store:      store,
		analyzer:   analyzer,
		logger:     logger,
		userStates: make(map[int64]*models.UserState),
		stateMutex: sync.RWMutex{},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	// Remove any existing webhook to ensure we can use polling
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)

	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

// handleUpdates processes incoming updates from Telegram
func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go func(update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					t.logger.Error("Recovered from panic while processing update", "error", r)
				}
			}()

			if update.Message != nil {
				if update.Message.IsCommand() {
					t.handleCommand(update.Message)
				} else {
					t.handleMessage(update.Message)
				}
			} else if update.CallbackQuery != nil {
				t.handleCallbackQuery(update.CallbackQuery)
			}
		}(update)
	}
}

// handleCommand processes bot commands
func (t *TelegramBot) handleCommand(message *tgbotapi.Message) {
	command := message.Command()
	chatID := message.Chat.ID
	userID := message.From.ID

	t.logger.Info("Handling command", "command", command, "user_id", userID)

	switch command {
	case "start":
		text := "👋 Hi! Send me a photo of your meal and I'll estimate its nutrition and keep a daily log.\n\n" +
			"First set up your health profile with /profile. Then:\n" +
			"• send a meal photo to analyze and log it\n" +
			"• /today — today's totals vs your targets\n" +
			"• /history — your recent meals"
		t.send(tgbotapi.NewMessage(chatID, text))

	case "profile":
		t.startProfileForm(chatID, userID)

	case "today":
		t.sendToday(chatID)

	case "history":
		t.sendHistory(chatID)

	case "help":
		msg := tgbotapi.NewMessage(chatID, "Send a meal photo to analyze it. /profile sets your health info, /today shows today's totals, /history shows recent meals.")
		t.send(msg)

	default:
		msg := tgbotapi.NewMessage(chatID, "Unknown command. Use /start to see what I can do.")
		t.send(msg)
	}
}

func (t *TelegramBot) startProfileForm(chatID, userID int64) {
	saved := t.store.LoadProfile()

	t.stateMutex.Lock()
	t.userStates[userID] = &models.UserState{
		TelegramID:   userID,
		CurrentState: StateGender,
		Draft:        saved,
	}
	t.stateMutex.Unlock()

	msg := tgbotapi.NewMessage(chatID, "Let's set up your profile. What is your gender?")
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("male"),
			tgbotapi.NewKeyboardButton("female"),
			tgbotapi.NewKeyboardButton("other"),
		),
	)
	t.send(msg)
}

// handleMessage processes regular messages based on user state
func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	// Photos are the upload control: any photo starts an analysis flow.
	if len(message.Photo) > 0 || isImageDocument(message) {
		t.handlePhoto(message)
		return
	}

	text := message.Text

	t.stateMutex.RLock()
	state, exists := t.userStates[userID]
	t.stateMutex.RUnlock()

	if !exists || state.CurrentState == StateIdle {
		t.send(tgbotapi.NewMessage(chatID, "Send a meal photo to analyze it, or use /profile to update your health info."))
		return
	}

	switch state.CurrentState {
	case StateGender:
		if text != "male" && text != "female" && text != "other" {
			msg := tgbotapi.NewMessage(chatID, "Please pick a gender with the buttons below.")
			msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
				tgbotapi.NewKeyboardButtonRow(
					tgbotapi.NewKeyboardButton("male"),
					tgbotapi.NewKeyboardButton("female"),
					tgbotapi.NewKeyboardButton("other"),
				),
			)
			t.send(msg)
			return
		}

		state.Draft.Gender = text
		state.CurrentState = StateHeight

		msg := tgbotapi.NewMessage(chatID, "What is your height in cm? (for example, 175)")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		t.send(msg)

	case StateHeight:
		height, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || height < 100 || height > 220 {
			t.send(tgbotapi.NewMessage(chatID, "Please enter a height between 100 and 220 cm."))
			return
		}

		state.Draft.HeightCM = float64(height)
		state.CurrentState = StateWeight

		t.send(tgbotapi.NewMessage(chatID, "What is your weight in kg? (for example, 70)"))

	case StateWeight:
		weight, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || weight < 30 || weight > 200 {
			t.send(tgbotapi.NewMessage(chatID, "Please enter a weight between 30 and 200 kg."))
			return
		}

		state.Draft.WeightKG = float64(weight)
		state.CurrentState = StateGoal

		msg := tgbotapi.NewMessage(chatID, "What is your goal?")
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton("maintain"),
				tgbotapi.NewKeyboardButton("cut"),
				tgbotapi.NewKeyboardButton("bulk"),
			),
		)
		t.send(msg)

	case StateGoal:
		if text != "maintain" && text != "cut" && text != "bulk" {
			t.send(tgbotapi.NewMessage(chatID, "Please pick a goal with the buttons below."))
			return
		}

		state.Draft.Goal = text
		state.CurrentState = StateActivity

		msg := tgbotapi.NewMessage(chatID, "How active are you? (or \"skip\" to use the default)")
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton("sedentary"),
				tgbotapi.NewKeyboardButton("light"),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton("moderate"),
				tgbotapi.NewKeyboardButton("active"),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton("skip"),
			),
		)
		t.send(msg)

	case StateActivity:
		switch text {
		case "sedentary", "light", "moderate", "active":
			state.Draft.Activity = text
		case "skip":
			state.Draft.Activity = ""
		default:
			t.send(tgbotapi.NewMessage(chatID, "Please pick an activity level with the buttons below."))
			return
		}

		state.CurrentState = StateAge

		msg := tgbotapi.NewMessage(chatID, "How old are you? (or \"skip\" — then I'll use rougher target ranges)")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		t.send(msg)

	case StateAge:
		if strings.EqualFold(strings.TrimSpace(text), "skip") {
			state.Draft.Age = 0
		} else {
			age, err := strconv.Atoi(strings.TrimSpace(text))
			if err != nil || age < 10 || age > 120 {
				t.send(tgbotapi.NewMessage(chatID, "Please enter an age between 10 and 120, or \"skip\"."))
				return
			}
			state.Draft.Age = age
		}

		state.CurrentState = StateConfirm

		summary := fmt.Sprintf(
			"Let's double-check:\n\nGender: %s\nHeight: %.0f cm\nWeight: %.0f kg\nGoal: %s\nActivity: %s\nAge: %s\n\nSave this?",
			state.Draft.Gender, state.Draft.HeightCM, state.Draft.WeightKG, state.Draft.Goal,
			orDefault(state.Draft.Activity, "light (default)"),
			ageLabel(state.Draft.Age),
		)

		msg := tgbotapi.NewMessage(chatID, summary)
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton("Yes, save"),
				tgbotapi.NewKeyboardButton("No, start over"),
			),
		)
		t.send(msg)

	case StateConfirm:
		if text == "No, start over" {
			t.startProfileForm(chatID, userID)
			return
		}
		if text != "Yes, save" {
			t.send(tgbotapi.NewMessage(chatID, "Please pick one of the answers."))
			return
		}

		if err := t.store.SaveProfile(state.Draft); err != nil {
			t.logger.Error("Failed to save profile", "error", err)
			t.send(tgbotapi.NewMessage(chatID, "Sorry, something went wrong saving your profile. Please try again later."))
			return
		}

		targets := nutrition.CalculateTargets(state.Draft)
		saved := fmt.Sprintf(
			"✅ Profile saved.\n\nDaily targets: %s kcal, %s g protein.\n\nNow send me a photo of your next meal!",
			targets.CaloriesRange(), targets.ProteinRange())

		msg := tgbotapi.NewMessage(chatID, saved)
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		t.send(msg)

		state.CurrentState = StateIdle

	default:
		t.send(tgbotapi.NewMessage(chatID, "Something went out of sync. Use /profile to restart the form."))

		t.stateMutex.Lock()
		t.userStates[userID] = &models.UserState{
			TelegramID:   userID,
			CurrentState: StateIdle,
		}
		t.stateMutex.Unlock()
	}
}

// handlePhoto downloads the photo and asks which meal it was.
func (t *TelegramBot) handlePhoto(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	profile := t.store.LoadProfile()
	if !profile.IsComplete() {
		t.send(tgbotapi.NewMessage(chatID, "I need your health profile before analyzing meals. Set it up with /profile."))
		return
	}

	img, mime, ext, err := t.downloadImage(message)
	if err != nil {
		t.logger.Error("Failed to download photo", "error", err)
		t.send(tgbotapi.NewMessage(chatID, "I couldn't download that photo. Please try sending it again."))
		return
	}

	t.stateMutex.Lock()
	t.userStates[userID] = &models.UserState{
		TelegramID:   userID,
		CurrentState: StateMealType,
		PendingImage: img,
		PendingMIME:  mime,
		PendingExt:   ext,
	}
	t.stateMutex.Unlock()

	msg := tgbotapi.NewMessage(chatID, "Got it! Which meal is this?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍳 breakfast", "meal:breakfast"),
			tgbotapi.NewInlineKeyboardButtonData("🍱 lunch", "meal:lunch"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🍲 dinner", "meal:dinner"),
			tgbotapi.NewInlineKeyboardButtonData("🍪 snack", "meal:snack"),
		),
	)
	t.send(msg)
}

// handleCallbackQuery processes callback queries from inline keyboards
func (t *TelegramBot) handleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	userID := callbackQuery.From.ID
	chatID := callbackQuery.Message.Chat.ID
	data := callbackQuery.Data

	// Acknowledge the callback
	t.bot.Request(tgbotapi.NewCallback(callbackQuery.ID, ""))

	t.stateMutex.RLock()
	state, exists := t.userStates[userID]
	t.stateMutex.RUnlock()

	if !exists || len(state.PendingImage) == 0 {
		t.send(tgbotapi.NewMessage(chatID, "That photo expired. Please send it again."))
		return
	}

	switch {
	case strings.HasPrefix(data, "meal:"):
		mealType := strings.TrimPrefix(data, "meal:")
		if !validMealType(mealType) {
			return
		}
		state.MealType = mealType
		state.CurrentState = StatePortion

		msg := tgbotapi.NewMessage(chatID, "And how big was the portion?")
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("small", "portion:small"),
				tgbotapi.NewInlineKeyboardButtonData("normal", "portion:normal"),
				tgbotapi.NewInlineKeyboardButtonData("large", "portion:large"),
			),
		)
		t.send(msg)

	case strings.HasPrefix(data, "portion:"):
		portion := strings.TrimPrefix(data, "portion:")
		t.send(tgbotapi.NewMessage(chatID, "🔍 Analyzing your meal... this takes a few seconds."))
		t.runAnalysis(chatID, userID, state, portion)
	}
}

// runAnalysis drives one full analysis: context from the log, the model
// call, persistence and the reply. It runs synchronously in the update's
// goroutine; the model call is the one slow step.
func (t *TelegramBot) runAnalysis(chatID, userID int64, state *models.UserState, portion string) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	profile := t.store.LoadProfile()
	log := t.store.LoadLog()
	now := time.Now()
	today := now.Format("2006-01-02")

	result, err := t.analyzer.Analyze(ctx, analysis.Request{
		Image:        state.PendingImage,
		MIME:         state.PendingMIME,
		Profile:      profile,
		MealType:     state.MealType,
		Portion:      portion,
		RecentMeals:  recentSummary(log),
		TodaySummary: todaySummary(log, profile, today),
	})
	if err != nil {
		t.logger.Error("Analysis failed", "error", err, "user_id", userID)
		t.send(tgbotapi.NewMessage(chatID, "❌ The analysis failed (the AI service could not be reached). Your meal was not logged — please try again."))
		return
	}

	imagePath, err := t.store.SaveImage(state.PendingImage, state.PendingExt, now)
	if err != nil {
		t.logger.Error("Failed to save meal image", "error", err)
		// The log entry is still worth keeping without the image.
		imagePath = ""
	}

	entry := models.MealLogEntry{
		Timestamp:   now.Format(time.RFC3339),
		Date:        today,
		MealType:    state.MealType,
		Foods:       result.Foods,
		Macros:      result.Macros,
		Diagnosis:   result.Diagnosis,
		NextMealTip: result.NextMealTip,
		RuleFlags:   result.RuleFlags,
		RuleNote:    result.RuleNote,
		Portion:     portion,
		ImagePath:   imagePath,
	}

	if err := t.store.AppendLog(entry); err != nil {
		t.logger.Error("Failed to append meal log", "error", err)
		t.send(tgbotapi.NewMessage(chatID, "The analysis worked but saving the log failed. Please try again."))
		return
	}

	t.send(tgbotapi.NewMessage(chatID, formatResult(entry)))

	t.stateMutex.Lock()
	t.userStates[userID] = &models.UserState{
		TelegramID:   userID,
		CurrentState: StateIdle,
	}
	t.stateMutex.Unlock()
}

func (t *TelegramBot) sendToday(chatID int64) {
	profile := t.store.LoadProfile()
	log := t.store.LoadLog()
	today := time.Now().Format("2006-01-02")

	totals := nutrition.AccumulateDay(log, today)
	if totals.Count == 0 {
		t.send(tgbotapi.NewMessage(chatID, "No meals logged today yet. Send me a photo!"))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Today: %d meal(s)\n\n", totals.Count)
	fmt.Fprintf(&b, "Calories: %s kcal\n", totals.Macros.CaloriesKcal)
	fmt.Fprintf(&b, "Protein: %s g\n", totals.Macros.ProteinG)
	fmt.Fprintf(&b, "Carbs: %s g\n", totals.Macros.CarbsG)
	fmt.Fprintf(&b, "Fat: %s g\n", totals.Macros.FatG)

	if profile.IsComplete() {
		targets := nutrition.CalculateTargets(profile)
		fmt.Fprintf(&b, "\nDaily targets: %s kcal, %s g protein", targets.CaloriesRange(), targets.ProteinRange())
	}

	t.send(tgbotapi.NewMessage(chatID, b.String()))
}

func (t *TelegramBot) sendHistory(chatID int64) {
	log := t.store.LoadLog()
	if len(log) == 0 {
		t.send(tgbotapi.NewMessage(chatID, "No meals logged yet. Send me a photo!"))
		return
	}

	// Last five entries, newest first.
	var b strings.Builder
	b.WriteString("🗒 Recent meals:\n")
	start := len(log) - 5
	if start < 0 {
		start = 0
	}
	for i := len(log) - 1; i >= start; i-- {
		e := log[i]
		fmt.Fprintf(&b, "\n• %s %s — %s (%s kcal)", e.Date, e.MealType, strings.Join(e.Foods, ", "), e.Macros.CaloriesKcal)
	}

	t.send(tgbotapi.NewMessage(chatID, b.String()))
}

// downloadImage fetches the bytes of the photo (or image document) in the
// message. Telegram re-encodes photos as JPEG.
func (t *TelegramBot) downloadImage(message *tgbotapi.Message) (img []byte, mime, ext string, err error) {
	var fileID string
	mime, ext = "image/jpeg", "jpg"

	if len(message.Photo) > 0 {
		// The largest size is last.
		fileID = message.Photo[len(message.Photo)-1].FileID
	} else if message.Document != nil {
		fileID = message.Document.FileID
		mime = message.Document.MimeType
		if mime == "image/png" {
			ext = "png"
		}
	}

	url, err := t.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to resolve file URL: %w", err)
	}

	resp, err := t.httpClient.Get(url)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to fetch file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", fmt.Errorf("unexpected status %d fetching file", resp.StatusCode)
	}

	img, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to read file body: %w", err)
	}
	return img, mime, ext, nil
}

// Stop gracefully shuts down the bot
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()

	// Allow time for handlers to complete
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
		return nil
	}
}

func (t *TelegramBot) send(c tgbotapi.Chattable) {
	if _, err := t.bot.Send(c); err != nil {
		t.logger.Error("Failed to send message", "error", err)
	}
}

func formatResult(e models.MealLogEntry) string {
	var b strings.Builder
	b.WriteString("🍽 Logged your " + e.MealType + "!\n")

	if len(e.Foods) > 0 {
		fmt.Fprintf(&b, "\nFoods: %s\n", strings.Join(e.Foods, ", "))
	}

	fmt.Fprintf(&b, "\nCalories: %s kcal\nProtein: %s g\nCarbs: %s g\nFat: %s g\n",
		e.Macros.CaloriesKcal, e.Macros.ProteinG, e.Macros.CarbsG, e.Macros.FatG)

	if e.Diagnosis != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Diagnosis)
	}
	if len(e.RuleFlags) > 0 {
		fmt.Fprintf(&b, "\n⚠️ %s\n", strings.Join(e.RuleFlags, ", "))
	}
	if e.NextMealTip != "" {
		fmt.Fprintf(&b, "\n💡 %s", e.NextMealTip)
	}
	return b.String()
}

// recentSummary condenses the last log entry into one prompt line.
func recentSummary(log []models.MealLogEntry) string {
	if len(log) == 0 {
		return ""
	}
	last := log[len(log)-1]
	return fmt.Sprintf("%s on %s: %s (%s kcal)",
		last.MealType, last.Date, strings.Join(last.Foods, ", "), last.Macros.CaloriesKcal)
}

// todaySummary condenses today's totals and targets into one prompt line.
func todaySummary(log []models.MealLogEntry, profile models.Profile, date string) string {
	totals := nutrition.AccumulateDay(log, date)
	if totals.Count == 0 {
		return ""
	}
	targets := nutrition.CalculateTargets(profile)
	return fmt.Sprintf("%d meal(s), %s kcal and %s g protein so far; daily target %s kcal, %s g protein",
		totals.Count, totals.Macros.CaloriesKcal, totals.Macros.ProteinG,
		targets.CaloriesRange(), targets.ProteinRange())
}

func isImageDocument(m *tgbotapi.Message) bool {
	return m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/")
}

func validMealType(s string) bool {
	for _, m := range mealTypes {
		if m == s {
			return true
		}
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func ageLabel(age int) string {
	if age == 0 {
		return "not set"
	}
	return strconv.Itoa(age)
}
