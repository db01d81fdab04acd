package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"github.com/bnema/visionary-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestController(t *testing.T, assistant ports.Assistant, speaker ports.Speaker, notifier ports.Notifier, options ExchangeOptions) (*ExchangeController, *SessionManager) {
	t.Helper()

	manager := newLoadedManager(t, newMemoryStore())
	controller := NewExchangeController(manager, assistant, speaker, notifier, newSteppingClock(), zap.NewNop(), options)
	return controller, manager
}

func TestExchangeSendMessageFromHomeCreatesSession(t *testing.T) {
	assistant := mocks.NewMockAssistant(t)
	speaker := mocks.NewMockSpeaker(t)
	notifier := mocks.NewMockNotifier(t)

	assistant.On("Ask", mock.Anything, "What is the CPM for prime time?", []domain.Turn{
		{Role: domain.RoleUser, Content: "What is the CPM for prime time?"},
	}).Return(jsonPayload(`{"answer":"\"CPM is 12\\nEUR\"","router":"rules"}`), nil).Once()
	speaker.On("Speak", "CPM is 12\nEUR", "auto").Once()

	controller, manager := newTestController(t, assistant, speaker, notifier, ExchangeOptions{VoiceEnabled: true, VoiceLanguage: "auto"})

	outcome := controller.SendMessage(context.Background(), "  What is the CPM for prime time?  ")
	require.Equal(t, OutcomeCompleted, outcome.Kind)
	require.NoError(t, outcome.Err)
	assert.Equal(t, "CPM is 12\nEUR", outcome.Reply.Content)
	assert.Equal(t, ExchangeIdle, controller.State())

	session, ok := manager.CurrentSession()
	require.True(t, ok)
	assert.Equal(t, outcome.SessionID, session.ID)
	assert.Equal(t, "What is the CPM for prime time?", session.Title)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, domain.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "What is the CPM for prime time?", session.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, "rules", session.Messages[1].Router)
}

func TestExchangeSendMessageSendsPriorHistory(t *testing.T) {
	var histories [][]domain.Turn
	assistant := assistantFunc(func(_ context.Context, _ string, history []domain.Turn) (domain.Payload, error) {
		histories = append(histories, history)
		return domain.Payload{ContentType: "text/plain", Body: []byte("ok")}, nil
	})

	controller, _ := newTestController(t, assistant, nil, nil, ExchangeOptions{})

	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "one").Kind)
	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "two").Kind)

	require.Len(t, histories, 2)
	assert.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleAssistant, Content: "ok"},
		{Role: domain.RoleUser, Content: "two"},
	}, histories[1])
}

func TestExchangeSendMessageRejectsBlankContent(t *testing.T) {
	assistant := mocks.NewMockAssistant(t)
	controller, manager := newTestController(t, assistant, nil, nil, ExchangeOptions{})

	outcome := controller.SendMessage(context.Background(), " \n\t ")
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, domain.ErrEmptyMessage)
	assert.Empty(t, manager.SortedSessions())
}

func TestExchangeFailureNotifiesAndAppendsNothing(t *testing.T) {
	assistant := mocks.NewMockAssistant(t)
	notifier := mocks.NewMockNotifier(t)
	speaker := mocks.NewMockSpeaker(t)

	assistant.On("Ask", mock.Anything, "hola", mock.Anything).
		Return(domain.Payload{}, errors.New("webhook error: status 502 Bad Gateway")).Once()
	notifier.On("Notify", ports.Notification{
		Level:   ports.NotificationError,
		Title:   "Error",
		Message: "webhook error: status 502 Bad Gateway",
	}).Once()

	controller, manager := newTestController(t, assistant, speaker, notifier, ExchangeOptions{VoiceEnabled: true})

	outcome := controller.SendMessage(context.Background(), "hola")
	assert.Equal(t, OutcomeFailed, outcome.Kind)
	assert.EqualError(t, outcome.Err, "webhook error: status 502 Bad Gateway")
	assert.Equal(t, ExchangeIdle, controller.State())

	session, ok := manager.CurrentSession()
	require.True(t, ok)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, domain.RoleUser, session.Messages[0].Role)
}

func TestExchangeStopCancelsInFlightRequest(t *testing.T) {
	started := make(chan struct{})
	assistant := assistantFunc(func(ctx context.Context, _ string, _ []domain.Turn) (domain.Payload, error) {
		close(started)
		<-ctx.Done()
		return domain.Payload{}, ctx.Err()
	})
	notifier := mocks.NewMockNotifier(t)
	speaker := mocks.NewMockSpeaker(t)

	controller, manager := newTestController(t, assistant, speaker, notifier, ExchangeOptions{VoiceEnabled: true})
	assert.False(t, controller.Stop())

	done := make(chan Outcome, 1)
	go func() {
		done <- controller.SendMessage(context.Background(), "hola")
	}()

	<-started
	assert.Equal(t, ExchangeSending, controller.State())
	assert.True(t, controller.Stop())
	assert.Equal(t, ExchangeIdle, controller.State())

	outcome := <-done
	assert.Equal(t, OutcomeCancelled, outcome.Kind)
	assert.NoError(t, outcome.Err)

	session, ok := manager.CurrentSession()
	require.True(t, ok)
	require.Len(t, session.Messages, 1)
}

func TestExchangeStopDiscardsReplyThatArrivesAfterCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	assistant := assistantFunc(func(context.Context, string, []domain.Turn) (domain.Payload, error) {
		close(started)
		<-release
		return jsonPayload(`{"answer":"late"}`), nil
	})

	controller, manager := newTestController(t, assistant, nil, nil, ExchangeOptions{})

	done := make(chan Outcome, 1)
	go func() {
		done <- controller.SendMessage(context.Background(), "hola")
	}()

	<-started
	require.True(t, controller.Stop())
	close(release)

	assert.Equal(t, OutcomeCancelled, (<-done).Kind)
	session, _ := manager.CurrentSession()
	assert.Len(t, session.Messages, 1)
}

func TestExchangeNewRequestSupersedesPendingOne(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	assistant := assistantFunc(func(ctx context.Context, query string, _ []domain.Turn) (domain.Payload, error) {
		if query == "first" {
			close(firstStarted)
			<-release
			return jsonPayload(`{"answer":"stale"}`), nil
		}
		return jsonPayload(`{"answer":"fresh"}`), nil
	})

	controller, manager := newTestController(t, assistant, nil, nil, ExchangeOptions{})

	done := make(chan Outcome, 1)
	go func() {
		done <- controller.SendMessage(context.Background(), "first")
	}()
	<-firstStarted

	second := controller.SendMessage(context.Background(), "second")
	require.Equal(t, OutcomeCompleted, second.Kind)

	close(release)
	assert.Equal(t, OutcomeCancelled, (<-done).Kind)

	session, ok := manager.CurrentSession()
	require.True(t, ok)
	contents := make([]string, 0, len(session.Messages))
	for _, message := range session.Messages {
		contents = append(contents, message.Content)
	}
	assert.Equal(t, []string{"first", "second", "fresh"}, contents)
}

func TestExchangeVoiceDisabledDoesNotSpeak(t *testing.T) {
	assistant := assistantFunc(func(context.Context, string, []domain.Turn) (domain.Payload, error) {
		return jsonPayload(`{"answer":"hola"}`), nil
	})
	speaker := mocks.NewMockSpeaker(t)

	controller, _ := newTestController(t, assistant, speaker, nil, ExchangeOptions{VoiceEnabled: false})
	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "hi").Kind)

	speaker.On("Speak", "hola", "es-ES").Once()
	controller.SetVoiceEnabled(true)
	controller.options.VoiceLanguage = "es-ES"
	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "hi again").Kind)
}

func TestExchangeVoiceOffSilencesPlaybackAndIsSaved(t *testing.T) {
	assistant := assistantFunc(func(context.Context, string, []domain.Turn) (domain.Payload, error) {
		return jsonPayload(`{"answer":"hola"}`), nil
	})
	speaker := mocks.NewMockSpeaker(t)
	prefs := mocks.NewMockPreferenceStore(t)

	speaker.On("Speak", "hola", "auto").Once()
	speaker.On("Stop").Once()
	prefs.On("SaveVoiceEnabled", mock.Anything, false).Return(nil).Once()

	controller, _ := newTestController(t, assistant, speaker, nil, ExchangeOptions{VoiceEnabled: true, VoiceLanguage: "auto"})
	controller.WithPreferences(prefs)

	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "hi").Kind)
	require.NoError(t, controller.ToggleVoice(context.Background(), false))

	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "hi again").Kind)
	speaker.AssertNumberOfCalls(t, "Speak", 1)
}

func TestExchangeToggleVoiceReportsSaveFailure(t *testing.T) {
	speaker := mocks.NewMockSpeaker(t)
	prefs := mocks.NewMockPreferenceStore(t)

	prefs.On("SaveVoiceEnabled", mock.Anything, true).Return(errors.New("disk full")).Once()

	controller, _ := newTestController(t, mocks.NewMockAssistant(t), speaker, nil, ExchangeOptions{})
	controller.WithPreferences(prefs)

	err := controller.ToggleVoice(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save voice preference")
	assert.True(t, controller.options.VoiceEnabled)
}

func TestExchangeStopWhileUserMessageIsStoredSkipsRequest(t *testing.T) {
	store := newMemoryStore()
	manager := newLoadedManager(t, store)
	assistant := mocks.NewMockAssistant(t)
	controller := NewExchangeController(manager, assistant, nil, nil, newSteppingClock(), zap.NewNop(), ExchangeOptions{})

	saving := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.beforeSave = func() {
		once.Do(func() {
			close(saving)
			<-release
		})
	}

	done := make(chan Outcome, 1)
	go func() {
		done <- controller.SendMessage(context.Background(), "hola")
	}()

	<-saving
	assert.Equal(t, ExchangeSending, controller.State())
	assert.True(t, controller.Stop())
	close(release)

	outcome := <-done
	assert.Equal(t, OutcomeCancelled, outcome.Kind)
	assert.Equal(t, ExchangeIdle, controller.State())

	session, ok := manager.CurrentSession()
	require.True(t, ok)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, domain.RoleUser, session.Messages[0].Role)
}

func TestExchangeEditAndResubmitTruncatesTail(t *testing.T) {
	var lastHistory []domain.Turn
	var lastQuery string
	assistant := assistantFunc(func(_ context.Context, query string, history []domain.Turn) (domain.Payload, error) {
		lastQuery = query
		lastHistory = history
		return jsonPayload(`{"answer":"answer to ` + query + `"}`), nil
	})

	controller, manager := newTestController(t, assistant, nil, nil, ExchangeOptions{})

	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "q1").Kind)
	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "q2").Kind)
	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "q3").Kind)

	require.NoError(t, controller.EditMessage(2, "q2 edited"))
	index, content, ok := controller.PendingEdit()
	require.True(t, ok)
	assert.Equal(t, 2, index)
	assert.Equal(t, "q2 edited", content)

	outcome := controller.SaveEdit(context.Background())
	require.Equal(t, OutcomeCompleted, outcome.Kind)

	assert.Equal(t, "q2 edited", lastQuery)
	assert.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Content: "q1"},
		{Role: domain.RoleAssistant, Content: "answer to q1"},
		{Role: domain.RoleUser, Content: "q2 edited"},
	}, lastHistory)

	session, ok := manager.CurrentSession()
	require.True(t, ok)
	contents := make([]string, 0, len(session.Messages))
	for _, message := range session.Messages {
		contents = append(contents, message.Content)
	}
	assert.Equal(t, []string{"q1", "answer to q1", "q2 edited", "answer to q2 edited"}, contents)

	_, _, ok = controller.PendingEdit()
	assert.False(t, ok)
}

func TestExchangeEditLeavesIndexPlusOneMessagesWhenResendFails(t *testing.T) {
	fail := false
	assistant := assistantFunc(func(context.Context, string, []domain.Turn) (domain.Payload, error) {
		if fail {
			return domain.Payload{}, errors.New("unreachable")
		}
		return jsonPayload(`{"answer":"ok"}`), nil
	})

	controller, manager := newTestController(t, assistant, nil, nil, ExchangeOptions{})
	for _, query := range []string{"a", "b", "c"} {
		require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), query).Kind)
	}

	fail = true
	require.NoError(t, controller.EditMessage(0, "a2"))
	assert.Equal(t, OutcomeFailed, controller.SaveEdit(context.Background()).Kind)

	session, _ := manager.CurrentSession()
	require.Len(t, session.Messages, 1)
	assert.Equal(t, "a2", session.Messages[0].Content)
}

func TestExchangeEditValidation(t *testing.T) {
	assistant := assistantFunc(func(context.Context, string, []domain.Turn) (domain.Payload, error) {
		return jsonPayload(`{"answer":"ok"}`), nil
	})
	controller, manager := newTestController(t, assistant, nil, nil, ExchangeOptions{})

	require.ErrorIs(t, controller.EditMessage(0, "x"), domain.ErrNoCurrentSession)

	require.Equal(t, OutcomeCompleted, controller.SendMessage(context.Background(), "q").Kind)

	require.ErrorIs(t, controller.EditMessage(1, "x"), domain.ErrNotUserMessage)
	require.ErrorIs(t, controller.EditMessage(2, "x"), domain.ErrMessageIndexOutOfRange)
	require.ErrorIs(t, controller.EditMessage(-1, "x"), domain.ErrMessageIndexOutOfRange)

	outcome := controller.SaveEdit(context.Background())
	assert.Equal(t, OutcomeRejected, outcome.Kind)
	assert.ErrorIs(t, outcome.Err, domain.ErrNoPendingEdit)

	require.NoError(t, controller.EditMessage(0, "changed"))
	controller.CancelEdit()
	assert.ErrorIs(t, controller.SaveEdit(context.Background()).Err, domain.ErrNoPendingEdit)

	require.NoError(t, controller.EditMessage(0, "   "))
	assert.ErrorIs(t, controller.SaveEdit(context.Background()).Err, domain.ErrEmptyMessage)

	session, _ := manager.CurrentSession()
	assert.Len(t, session.Messages, 2)
}
