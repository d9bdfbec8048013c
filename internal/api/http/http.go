package http

type Config struct {
	Port      uint   `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
	// RepoRoot is where release artifacts live for on-demand archive builds.
	RepoRoot string `mapstructure:"repo_root"`
}
