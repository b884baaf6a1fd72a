// Package npmcli runs npm audit and npm outdated through execshell and decodes their JSON reports.
package npmcli
