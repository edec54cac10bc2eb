package mailer

const (
	welcomeSubject = "Welcome to taskapp.com. Here are 3 useful tips."
	welcomeBody    = `Hi %s,
Thank you for joining our taskapp service.
Here are three useful tips about using taskapp.com
	1. Try to keep your tasks simple.
	2. Use filter to organize your tasks.
	3. Check the task completed after you finished it.

Hope you can improve your workflow and get things done faster with taskapp.com!`

	goodbyeSubject = "Goodbye, %s. Thank you for using Taskapp.com"
	goodbyeBody    = `Hi %s,
It looks like you recently deleted your Taskapp account.
It's been great to have you as our customer and we will try our best to improve our service.
Sincerely, Taskapp team`
)
