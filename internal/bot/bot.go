package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"taskboard/internal/logger"
	"taskboard/internal/manager"
	"taskboard/internal/models"
)

var commandsHandled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskboard_bot_commands_total",
		Help: "Total number of chat bot commands by command and result",
	},
	[]string{"command", "status"},
)

// Sender - часть BotAPI, которой бот отправляет ответы
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	svc    manager.Service
	wg     sync.WaitGroup
}

func New(token string, debug bool, svc manager.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}
	api.Debug = debug
	logger.Info(context.Background(), "Авторизован в Telegram", "username", api.Self.UserName)

	b := NewWithSender(api, svc)
	b.api = api
	return b, nil
}

func NewWithSender(sender Sender, svc manager.Service) *Bot {
	return &Bot{sender: sender, svc: svc}
}

// Run слушает обновления до отмены ctx и дожидается обработчиков
func (b *Bot) Run(ctx context.Context) error {
	if b.api == nil {
		return errors.New("бот создан без подключения к Telegram")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("ошибка получения updates: %w", err)
	}
	logger.Info(ctx, "Бот запущен и слушает сообщения")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logger.Info(ctx, "Бот остановлен")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.HandleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

func (b *Bot) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user := ""
	if msg.From != nil {
		user = msg.From.UserName
	}
	logger.Info(ctx, "Получено сообщение", "user", user, "text", msg.Text)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) != "" {
		b.addTaskFromText(ctx, msg.Chat.ID, msg.Text)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	var err error
	switch cmd := msg.Command(); cmd {
	case "start":
		b.sendMessage(chatID, welcomeText)
	case "help":
		b.sendMessage(chatID, helpText)
	case "add":
		if args == "" {
			b.sendMessage(chatID, "Укажите задачу после команды: /add Купить молоко")
			return
		}
		err = b.addTaskFromText(ctx, chatID, args)
	case "list":
		err = b.listTasks(ctx, chatID, args)
	case "done":
		err = b.setStatus(ctx, chatID, args, models.StatusCompleted)
	case "start_task":
		err = b.setStatus(ctx, chatID, args, models.StatusInProgress)
	case "delete":
		err = b.deleteTask(ctx, chatID, args)
	case "stats":
		err = b.sendStats(ctx, chatID)
	default:
		b.sendMessage(chatID, "Неизвестная команда. Используйте /help для списка команд.")
		commandsHandled.WithLabelValues("unknown", "error").Inc()
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	commandsHandled.WithLabelValues(msg.Command(), status).Inc()
}

// parseTaskText: слова #тег задают категорию (первый тег), !high/!medium/!low - приоритет
func parseTaskText(text string) models.CreateTaskRequest {
	var req models.CreateTaskRequest
	var words []string
	for _, word := range strings.Fields(text) {
		switch {
		case strings.HasPrefix(word, "#") && len(word) > 1:
			if req.Category == "" {
				req.Category = strings.TrimPrefix(word, "#")
			}
		case strings.HasPrefix(word, "!") && models.Priority(strings.ToLower(word[1:])).Valid():
			req.Priority = models.Priority(strings.ToLower(word[1:]))
		default:
			words = append(words, word)
		}
	}
	req.Title = strings.Join(words, " ")
	return req
}

func (b *Bot) addTaskFromText(ctx context.Context, chatID int64, text string) error {
	task, err := b.svc.CreateTask(ctx, parseTaskText(text))
	if err != nil {
		b.sendError(chatID, err)
		return err
	}

	response := fmt.Sprintf("✅ *Задача добавлена!*\n\nID: #%d\nЗадача: %s\nКатегория: %s\nПриоритет: %s %s",
		task.ID, escape(task.Title), escape(task.Category), priorityEmoji(task.Priority), task.Priority)
	b.sendMessage(chatID, response)
	return nil
}

func (b *Bot) listTasks(ctx context.Context, chatID int64, args string) error {
	filter := models.TaskFilter{Status: models.Status(args)}
	if args != "" && !filter.Status.Valid() {
		b.sendMessage(chatID, "Статус должен быть pending, in_progress или completed")
		return fmt.Errorf("неверный статус %q", args)
	}

	tasks, err := b.svc.ListTasks(ctx, filter)
	if err != nil {
		b.sendError(chatID, err)
		return err
	}
	if len(tasks) == 0 {
		b.sendMessage(chatID, "📭 Список задач пуст")
		return nil
	}

	var response strings.Builder
	response.WriteString("📋 *Ваши задачи:*\n\n")
	for _, task := range tasks {
		fmt.Fprintf(&response, "%s%s #%d: %s", statusEmoji(task.Status), priorityEmoji(task.Priority), task.ID, escape(task.Title))
		if task.Category != "" {
			fmt.Fprintf(&response, " #%s", escape(task.Category))
		}
		if !task.DueDate.IsZero() {
			fmt.Fprintf(&response, " 📅 %s", task.DueDate)
		}
		response.WriteString("\n")
	}
	b.sendMessage(chatID, response.String())
	return nil
}

func (b *Bot) setStatus(ctx context.Context, chatID int64, args string, status models.Status) error {
	id, err := parseID(args)
	if err != nil {
		b.sendMessage(chatID, "Укажите номер задачи числом, например: 1")
		return err
	}

	task, err := b.svc.UpdateTask(ctx, id, models.UpdateTaskRequest{Status: &status})
	if err != nil {
		b.sendError(chatID, err)
		return err
	}

	text := fmt.Sprintf("🔄 Задача #%d взята в работу!", task.ID)
	if status == models.StatusCompleted {
		text = fmt.Sprintf("✅ Задача #%d отмечена выполненной!", task.ID)
	}
	b.sendMessage(chatID, text)
	return nil
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, args string) error {
	id, err := parseID(args)
	if err != nil {
		b.sendMessage(chatID, "Укажите номер задачи числом: /delete 1")
		return err
	}

	if _, err := b.svc.DeleteTask(ctx, id); err != nil {
		b.sendError(chatID, err)
		return err
	}
	b.sendMessage(chatID, fmt.Sprintf("🗑️ Задача #%d удалена!", id))
	return nil
}

func (b *Bot) sendStats(ctx context.Context, chatID int64) error {
	stats, err := b.svc.GetStatistics(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return err
	}

	text := fmt.Sprintf("📊 *Статистика*\n\nВсего: %d\n⏳ Ожидают: %d\n🔄 В работе: %d\n✅ Выполнено: %d\n⚠️ Просрочено: %d\n📈 Выполнение: %.2f%%",
		stats.Total, stats.Pending, stats.InProgress, stats.Completed, stats.Overdue, stats.CompletionPercent())
	b.sendMessage(chatID, text)
	return nil
}

func parseID(args string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(args, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("неверный номер задачи %q", args)
	}
	return id, nil
}

func (b *Bot) sendError(chatID int64, err error) {
	text := "❌ Ошибка: " + err.Error()
	if manager.IsNotFound(err) {
		text = "❌ Ошибка: задача не найдена"
	}
	b.sendMessage(chatID, escape(text))
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.sender.Send(msg); err != nil {
		logger.Error(context.Background(), err, "Ошибка отправки сообщения", "chat_id", chatID)
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape экранирует пользовательский текст для Markdown
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func statusEmoji(s models.Status) string {
	switch s {
	case models.StatusCompleted:
		return "✅"
	case models.StatusInProgress:
		return "🔄"
	}
	return "⏳"
}

func priorityEmoji(p models.Priority) string {
	switch p {
	case models.PriorityLow:
		return "🔵"
	case models.PriorityMedium:
		return "🟡"
	case models.PriorityHigh:
		return "🔴"
	}
	return "⚪"
}

const welcomeText = `🎯 *Добро пожаловать в TaskBoard!*

*Доступные команды:*
/add [задача] - Добавить задачу
/list [статус] - Показать задачи
/start\_task [номер] - Взять задачу в работу
/done [номер] - Отметить задачу выполненной
/delete [номер] - Удалить задачу
/stats - Статистика
/help - Помощь

*Примеры:*
/add Купить молоко #покупки
/add Подготовить отчет !high #Documentation
/done 1`

const helpText = `🤖 *Помощь по командам*

*/start* - Начать работу с ботом
*/add [задача]* - Добавить новую задачу (#тег - категория, !high - приоритет)
*/list [статус]* - Показать задачи (pending, in\_progress, completed)
*/start\_task [номер]* - Взять задачу в работу
*/done [номер]* - Отметить задачу выполненной
*/delete [номер]* - Удалить задачу
*/stats* - Показать статистику
*/help* - Показать эту справку

Обычное сообщение без команды тоже добавляет задачу.`
