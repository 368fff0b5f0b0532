// Package winreg stores bridge keys as values under HKEY_CURRENT_USER\Software\<namespace>.
package winreg
