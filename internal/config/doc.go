// Package config manages the framehello configuration file.
//
// The file remembers the last Frame a session bound to, so a later run can
// reconnect without scanning, and holds user preferences such as the scan
// timeout and the pauses used while talking to the device. It follows
// OS-specific conventions for storage location:
//   - Linux: $XDG_CONFIG_HOME/framehello/config.yaml or $HOME/.config/framehello/config.yaml
//   - macOS: $HOME/.config/framehello/config.yaml
//   - Windows: %LOCALAPPDATA%\framehello\config.yaml
//
// # Usage Example
//
//	path, _ := config.GetConfigPath()
//	registry, err := config.LoadRegistryFrom(path)
//	if err != nil {
//	    return err
//	}
//	registry.SetLastDevice("F3:8C:4A:22:01:9E", "Frame 9E")
//	return registry.SaveTo(path)
//
// LoadRegistry caches the registry for the process. Writes from SaveTo are
// serialized and replace the file by rename.
package config
