package util

func GetAppName() string {
	return "Emisor"
}
