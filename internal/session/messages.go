package session

import "fmt"

const (
	msgWelcome = "Welcome to alertlink! Link your account to receive air quality alerts in this chat.\n\n" +
		"Please send the email address you registered with."
	msgAskSecret = "Thanks. Now send your password."
	msgFailure   = "Incorrect email or password.\nSend /start to try again."
	msgLinkError = "Your account was verified but this chat could not be linked. Please try again later with /start."
	msgHelp      = "alertlink sends personalised air quality alerts to this chat.\n\n" +
		"Commands:\n" +
		"/start - link your account to this chat\n" +
		"/help - show this message\n\n" +
		"Register on the website first, then use /start with the same email and password."
)

func msgSuccess(name string) string {
	return fmt.Sprintf("Login successful! Welcome, %s.\n\n"+
		"You will receive personalised air quality alerts in this chat.\n"+
		"Send /help at any time for the list of commands.", name)
}

func msgSuggest(got, want string) string {
	return fmt.Sprintf("Unknown command %s. Did you mean %s?", got, want)
}
