// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "phototriage")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "phototriage.log")
	viper.SetDefault("main.log.maxsize", 10)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 30)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.address", "0.0.0.0")
	viper.SetDefault("webserver.port", "5000")
	viper.SetDefault("webserver.log.enabled", false)
	viper.SetDefault("webserver.log.path", "webui.log")

	viper.SetDefault("model.path", "model/classifier.onnx")
	viper.SetDefault("model.metadatapath", "model/classifier_metadata.json")

	viper.SetDefault("triage.threshold", 0.2)
	viper.SetDefault("triage.priorityscale", 10)

	viper.SetDefault("uploads.path", "uploads/")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "reports.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "phototriage")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "phototriage")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
