// Package mocks holds testify mocks for the ports interfaces.
package mocks

import (
	"context"

	"github.com/bnema/visionary-cli/internal/domain"
	"github.com/bnema/visionary-cli/internal/ports"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type MockAssistant struct {
	mock.Mock
}

var _ ports.Assistant = (*MockAssistant)(nil)

func NewMockAssistant(t testingT) *MockAssistant {
	m := &MockAssistant{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAssistant) Ask(ctx context.Context, query string, history []domain.Turn) (domain.Payload, error) {
	args := m.Called(ctx, query, history)
	return args.Get(0).(domain.Payload), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

var _ ports.Uploader = (*MockUploader)(nil)

func NewMockUploader(t testingT) *MockUploader {
	m := &MockUploader{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUploader) Upload(ctx context.Context, path string, displayName string) error {
	return m.Called(ctx, path, displayName).Error(0)
}

type MockNotifier struct {
	mock.Mock
}

var _ ports.Notifier = (*MockNotifier)(nil)

func NewMockNotifier(t testingT) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) Notify(notification ports.Notification) {
	m.Called(notification)
}

type MockSpeaker struct {
	mock.Mock
}

var _ ports.Speaker = (*MockSpeaker)(nil)

func NewMockSpeaker(t testingT) *MockSpeaker {
	m := &MockSpeaker{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSpeaker) Speak(text string, language string) {
	m.Called(text, language)
}

func (m *MockSpeaker) Stop() {
	m.Called()
}

type MockNavigator struct {
	mock.Mock
}

var _ ports.Navigator = (*MockNavigator)(nil)

func NewMockNavigator(t testingT) *MockNavigator {
	m := &MockNavigator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNavigator) ShowSession(id domain.SessionID) {
	m.Called(id)
}

func (m *MockNavigator) ShowHome() {
	m.Called()
}

type MockSecretStore struct {
	mock.Mock
}

var _ ports.SecretStore = (*MockSecretStore)(nil)

func NewMockSecretStore(t testingT) *MockSecretStore {
	m := &MockSecretStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSecretStore) Put(ctx context.Context, key string, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockSecretStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockSecretStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type MockPreferenceStore struct {
	mock.Mock
}

var _ ports.PreferenceStore = (*MockPreferenceStore)(nil)

func NewMockPreferenceStore(t testingT) *MockPreferenceStore {
	m := &MockPreferenceStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPreferenceStore) VoiceEnabled(ctx context.Context) (bool, bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockPreferenceStore) SaveVoiceEnabled(ctx context.Context, enabled bool) error {
	return m.Called(ctx, enabled).Error(0)
}
