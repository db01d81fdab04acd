package ports

type Speaker interface {
	Speak(text string, language string)
	Stop()
}
