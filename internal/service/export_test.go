package service

// SetPasswordComparer 替换 AuthService 的密码比较函数，供测试观察调用。
func SetPasswordComparer(s *AuthService, compare func(password, hash string) bool) {
	s.comparePassword = compare
}
