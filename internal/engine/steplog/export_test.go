package steplog

var FormatElapsed = formatElapsed
