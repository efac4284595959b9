package config

import "testing"

func validConfig() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080},
		Backend:    BackendConfig{APIURL: "https://hr.example.com"},
		Auth:       AuthConfig{SessionSecret: "portal-secret-for-tests"},
		Attendance: AttendanceConfig{RadiusMeters: 50},
		UI:         UIConfig{PageSize: 10},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("期望校验通过，实际: %v", err)
	}
}

func TestValidate_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.SessionSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Error("密钥过短应校验失败")
	}
}

func TestValidate_BackendRequiredOutsideDemo(t *testing.T) {
	cfg := validConfig()
	cfg.Backend.APIURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("非演示模式缺少 backend.api_url 应失败")
	}

	cfg.Feature.DemoMode = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("演示模式不要求 backend.api_url: %v", err)
	}
}

func TestValidate_Radius(t *testing.T) {
	cfg := validConfig()
	cfg.Attendance.RadiusMeters = 0
	if err := cfg.Validate(); err == nil {
		t.Error("半径为 0 应校验失败")
	}
}

func TestMailEnabled(t *testing.T) {
	m := MailConfig{}
	if m.Enabled() {
		t.Error("未配置 SMTP 时不应启用")
	}
	m.SMTPHost = "smtp.example.com"
	if !m.Enabled() {
		t.Error("配置 SMTP 后应启用")
	}
}
