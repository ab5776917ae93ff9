package flow

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aio-labs/aio-bot/internal/blob"
	"github.com/aio-labs/aio-bot/internal/genai"
	"github.com/aio-labs/aio-bot/internal/models"
	"github.com/aio-labs/aio-bot/internal/store"
)

// fakePipeline scripts completion outcomes for chat-mode tests.
type fakePipeline struct {
	answer string
	err    error
	calls  int
}

func (f *fakePipeline) Ask(ctx context.Context, history []models.ChatMessage, userInput string) (string, []models.ChatMessage, error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	updated := append(append([]models.ChatMessage{}, history...),
		models.ChatMessage{Role: models.RoleUser, Content: userInput},
		models.ChatMessage{Role: models.RoleAssistant, Content: f.answer},
	)
	return f.answer, updated, nil
}

// fakeFetcher serves scripted file bytes.
type fakeFetcher struct {
	data map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	return f.data[fileID], nil
}

type testEnv struct {
	engine    *Engine
	profiles  *store.FileProfileStore
	reminders *store.FileReminderStore
	pipeline  *fakePipeline
	loc       *time.Location
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Almaty")
	require.NoError(t, err)

	dir := t.TempDir()
	profiles := store.NewFileProfileStore(filepath.Join(dir, "users_data.json"))
	reminders := store.NewFileReminderStore(filepath.Join(dir, "tasks_data.json"), loc)
	blobs, err := blob.NewStore(filepath.Join(dir, "user_files"))
	require.NoError(t, err)

	pipeline := &fakePipeline{answer: "assistant says hi"}
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, loc)

	engine := NewEngine(Deps{
		Profiles:   profiles,
		Reminders:  reminders,
		Blobs:      blobs,
		Completion: pipeline,
		Files:      &fakeFetcher{data: map[string][]byte{"file-1": []byte("payload")}},
		Location:   loc,
		Now:        func() time.Time { return now },
	})
	return &testEnv{engine: engine, profiles: profiles, reminders: reminders, pipeline: pipeline, loc: loc, now: now}
}

func (env *testEnv) text(userID, text string) []models.Reply {
	return env.engine.HandleEvent(context.Background(), models.Event{Kind: models.EventText, UserID: userID, Text: text})
}

func (env *testEnv) command(userID, cmd string) []models.Reply {
	return env.engine.HandleEvent(context.Background(), models.Event{Kind: models.EventCommand, UserID: userID, Text: cmd})
}

func (env *testEnv) callback(userID, data string) []models.Reply {
	return env.engine.HandleEvent(context.Background(), models.Event{Kind: models.EventCallback, UserID: userID, Text: data})
}

func register(t *testing.T, env *testEnv, userID string) {
	t.Helper()
	env.text(userID, MenuRegister)
	env.text(userID, "Ana")
	env.text(userID, "Li")
	env.text(userID, "+77011234567")
	env.text(userID, "ana@example.com")
	replies := env.text(userID, "да")
	require.Len(t, replies, 1)
	require.Contains(t, replies[0].Text, "Ваши данные сохранены")
}

func TestRegistration_FullScenario(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "42")

	profile, ok := env.profiles.Get("42")
	require.True(t, ok)
	require.Equal(t, "Ana", profile.Name)
	require.Equal(t, "Li", profile.Surname)
	require.Equal(t, "+77011234567", profile.Phone)
	require.Equal(t, "ana@example.com", profile.Email)
	require.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), profile.UniqueCode)

	replies := env.text("42", MenuMyData)
	require.Len(t, replies, 1)
	require.Contains(t, replies[0].Text, "Ana")
	require.Contains(t, replies[0].Text, "Li")
	require.Contains(t, replies[0].Text, "+77011234567")
	require.Contains(t, replies[0].Text, "ana@example.com")
	require.Contains(t, replies[0].Text, profile.UniqueCode)
}

func TestRegistration_NoSecondProfile(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "42")
	before, _ := env.profiles.Get("42")

	replies := env.text("42", MenuRegister)
	require.Len(t, replies, 1)
	require.Contains(t, replies[0].Text, "уже зарегистрированы")

	after, _ := env.profiles.Get("42")
	require.Equal(t, before, after, "second attempt must not mutate the store")
}

func TestRegistration_InvalidPhoneReprompts(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuRegister)
	env.text("42", "Ana")
	env.text("42", "Li")

	replies := env.text("42", "12345")
	require.Contains(t, replies[0].Text, "Номер телефона неверен")

	// State has not advanced; a valid phone continues to email.
	replies = env.text("42", "+77011234567")
	require.Contains(t, replies[0].Text, "электронную почту")
}

func TestRegistration_InvalidEmailReprompts(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuRegister)
	env.text("42", "Ana")
	env.text("42", "Li")
	env.text("42", "+77011234567")

	replies := env.text("42", "not-an-email")
	require.Contains(t, replies[0].Text, "Неправильный формат email")

	replies = env.text("42", "ana@example.com")
	require.Contains(t, replies[0].Text, "подтвердите")
}

func TestRegistration_DeclineDiscards(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuRegister)
	env.text("42", "Ana")
	env.text("42", "Li")
	env.text("42", "+77011234567")
	env.text("42", "ana@example.com")

	replies := env.text("42", "нет")
	require.Contains(t, replies[0].Text, "Регистрация")
	require.False(t, env.profiles.Contains("42"))
}

func TestRegistration_UnrecognizedConfirmationIsSilentNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuRegister)
	env.text("42", "Ana")
	env.text("42", "Li")
	env.text("42", "+77011234567")
	env.text("42", "ana@example.com")

	replies := env.text("42", "maybe?")
	require.Empty(t, replies, "unrecognized confirmation input is swallowed")
	require.False(t, env.profiles.Contains("42"))

	// Still at confirmation: "да" commits.
	replies = env.text("42", "да")
	require.Contains(t, replies[0].Text, "Ваши данные сохранены")
	require.True(t, env.profiles.Contains("42"))
}

func TestRegistration_CancelCallback(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuRegister)
	env.text("42", "Ana")

	replies := env.callback("42", CallbackCancelRegistration)
	require.Contains(t, replies[0].Text, "Регистрация отменена")

	// Back at Idle: restarting asks for the name again.
	replies = env.text("42", MenuRegister)
	require.Contains(t, replies[0].Text, "Введите ваше имя")
}

func TestGlobalCancelReturnsToIdle(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuCreateTask)
	env.text("42", "dentist")

	replies := env.command("42", "cancel")
	require.Contains(t, replies[0].Text, "Действие отменено")

	// Idle again: menu labels work, pending fields are gone.
	replies = env.text("42", MenuShowSchedule)
	require.Contains(t, replies[0].Text, "Расписание пусто")
}

func TestEdit_RequiresProfile(t *testing.T) {
	env := newTestEnv(t)
	replies := env.text("42", MenuEditData)
	require.Contains(t, replies[0].Text, "Вы не зарегистрированы")
}

func TestEdit_SingleFieldReplace(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "42")

	replies := env.text("42", MenuEditData)
	require.NotNil(t, replies[0].Keyboard)

	replies = env.callback("42", CallbackEditPrefix+"name")
	require.Contains(t, replies[0].Text, "новое значение")

	replies = env.text("42", "Anastasia")
	require.Contains(t, replies[0].Text, "успешно обновлено")

	profile, _ := env.profiles.Get("42")
	require.Equal(t, "Anastasia", profile.Name)
	require.Equal(t, "Li", profile.Surname, "only the selected field changes")
}

func TestEdit_PhoneValidated(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "42")
	env.text("42", MenuEditData)
	env.callback("42", CallbackEditPrefix+"phone")

	replies := env.text("42", "abc")
	require.Contains(t, replies[0].Text, "Номер телефона неверен")

	profile, _ := env.profiles.Get("42")
	require.Equal(t, "+77011234567", profile.Phone)

	replies = env.text("42", "+77779998877")
	require.Contains(t, replies[0].Text, "успешно обновлено")
	profile, _ = env.profiles.Get("42")
	require.Equal(t, "+77779998877", profile.Phone)
}

func TestTaskCreation_Success(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuCreateTask)
	env.text("42", "dentist")

	replies := env.text("42", "2030-06-02 09:30")
	require.Contains(t, replies[0].Text, "Задача 'dentist' на 2030-06-02 09:30 добавлена")

	list := env.reminders.List("42")
	require.Len(t, list, 1)
	require.Equal(t, "dentist", list[0].Name)
	expected := time.Date(2030, 6, 2, 9, 30, 0, 0, env.loc)
	require.True(t, list[0].DueAt.Equal(expected))
}

func TestTaskCreation_PastDueRepromptsKeepingName(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuCreateTask)
	env.text("42", "dentist")

	replies := env.text("42", "2020-01-01 10:00")
	require.Contains(t, replies[0].Text, "Время уже прошло")
	require.Empty(t, env.reminders.List("42"), "past due never mutates the store")

	// Same attempt continues; the name is preserved.
	replies = env.text("42", "2030-06-02 09:30")
	require.Contains(t, replies[0].Text, "dentist")
	require.Len(t, env.reminders.List("42"), 1)
}

func TestTaskCreation_BadFormatAbortsToIdle(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuCreateTask)
	env.text("42", "dentist")

	replies := env.text("42", "tomorrow at noon")
	require.Contains(t, replies[0].Text, "Неверный формат")
	require.Empty(t, env.reminders.List("42"))

	// Flow restarted from Idle: free text falls through to the fallback.
	replies = env.text("42", "2030-06-02 09:30")
	require.Contains(t, replies[0].Text, "Не понял")
}

func TestTaskDeletion(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuCreateTask)
	env.text("42", "a")
	env.text("42", "2030-06-02 09:00")
	env.text("42", MenuCreateTask)
	env.text("42", "b")
	env.text("42", "2030-06-03 09:00")
	env.text("42", MenuCreateTask)
	env.text("42", "c")
	env.text("42", "2030-06-04 09:00")

	replies := env.text("42", MenuDeleteTask)
	require.Contains(t, replies[0].Text, "1. a")
	require.Contains(t, replies[0].Text, "3. c")

	// Non-numeric input re-prompts without leaving the state.
	replies = env.text("42", "second one")
	require.Contains(t, replies[0].Text, "Введите номер")

	replies = env.text("42", "2")
	require.Contains(t, replies[0].Text, "Удалено: b")

	list := env.reminders.List("42")
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Name)
	require.Equal(t, "c", list[1].Name)
}

func TestTaskDeletion_OutOfRangeTerminates(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuCreateTask)
	env.text("42", "a")
	env.text("42", "2030-06-02 09:00")

	env.text("42", MenuDeleteTask)
	replies := env.text("42", "5")
	require.Contains(t, replies[0].Text, "Неверный номер")
	require.Len(t, env.reminders.List("42"), 1)

	// The flow terminated back to Idle.
	replies = env.text("42", "1")
	require.Contains(t, replies[0].Text, "Не понял")
}

func TestTaskDeletion_NoTasks(t *testing.T) {
	env := newTestEnv(t)
	replies := env.text("42", MenuDeleteTask)
	require.Contains(t, replies[0].Text, "Нет задач")

	// No state was opened.
	replies = env.text("42", "1")
	require.Contains(t, replies[0].Text, "Не понял")
}

func TestChat_TurnAppendsHistoryOnSuccess(t *testing.T) {
	env := newTestEnv(t)
	replies := env.text("42", MenuGPTChat)
	require.Contains(t, replies[0].Text, "Вы в GPT чате")

	replies = env.text("42", "привет")
	require.Len(t, replies, 2)
	require.Equal(t, "Обрабатываю...", replies[0].Text)
	require.Contains(t, replies[1].Text, "AIO:\nassistant says hi")

	session, release := env.engine.Sessions().Acquire("42")
	defer release()
	require.Len(t, session.History, 2, "history grows by one user/assistant pair")
}

func TestChat_FailureLeavesHistoryUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuGPTChat)
	env.text("42", "привет")

	env.pipeline.err = &genai.CallError{Class: genai.ClassRateLimit, RetriesExhausted: true, Err: context.DeadlineExceeded}
	replies := env.text("42", "ещё раз")
	require.Contains(t, replies[1].Text, "Ошибка GPT после повторов")

	session, release := env.engine.Sessions().Acquire("42")
	defer release()
	require.Len(t, session.History, 2, "failed turn must not pollute history")
}

func TestChat_QuotaMessage(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuGPTChat)

	env.pipeline.err = &genai.CallError{Class: genai.ClassQuota, Err: context.Canceled}
	replies := env.text("42", "привет")
	require.Equal(t, "Недостаточно квоты OpenAI.", replies[1].Text)
}

func TestChat_ProhibitedLink(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuGPTChat)

	replies := env.text("42", "зацени https://discord.gg/Gy4xbacfES")
	require.Len(t, replies, 1)
	require.Equal(t, "Ссылка запрещена.", replies[0].Text)
	require.Zero(t, env.pipeline.calls, "blocked messages never reach the backend")
}

func TestChat_CloseClearsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.text("42", MenuGPTChat)
	env.text("42", "привет")

	replies := env.callback("42", CallbackCloseGPT)
	require.Contains(t, replies[0].Text, "GPT чат закрыт")

	session, release := env.engine.Sessions().Acquire("42")
	require.Empty(t, session.History)
	require.Equal(t, models.StateIdle, session.State)
	release()
}

func TestFiles_UploadListDownload(t *testing.T) {
	env := newTestEnv(t)

	replies := env.engine.HandleEvent(context.Background(), models.Event{
		Kind:     models.EventDocument,
		UserID:   "42",
		Document: &models.DocumentRef{FileID: "file-1", FileName: "отчёт 2030.pdf"},
	})
	require.Contains(t, replies[0].Text, "сохранён")

	replies = env.text("42", MenuFiles)
	require.NotNil(t, replies[0].Keyboard)
	require.Len(t, replies[0].Keyboard.Rows, 1)

	name := replies[0].Keyboard.Rows[0][0].Label
	replies = env.callback("42", CallbackDownloadPrefix+name)
	require.NotEmpty(t, replies[0].DocumentPath)

	replies = env.callback("42", CallbackDownloadPrefix+"missing.bin")
	require.Contains(t, replies[0].Text, "Файл не найден")
}

func TestStartCommandShowsMenu(t *testing.T) {
	env := newTestEnv(t)
	replies := env.command("42", "start")
	require.Contains(t, replies[0].Text, "Привет")
	require.NotNil(t, replies[0].Keyboard)
	require.False(t, replies[0].Keyboard.Inline)
}

func TestFallbackAtIdle(t *testing.T) {
	env := newTestEnv(t)
	replies := env.text("42", "что-то непонятное")
	require.Contains(t, replies[0].Text, "Не понял")
}
