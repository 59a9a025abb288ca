package api

import (
	"runtime"

	"devinput/internal/protocol"

	"github.com/denisbrodbeck/machineid"
	"github.com/shirou/gopsutil/v3/host"
)

const machineIDApp = "devinput"

// hostInfo is collected once; fields that cannot be read stay empty.
func (s *Server) hostInfo() *protocol.HostInfo {
	s.hostOnce.Do(func() {
		info := &protocol.HostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}
		if id, err := machineid.ProtectedID(machineIDApp); err == nil {
			info.MachineID = id
		} else {
			logger.Debugf("machine id unavailable: %v", err)
		}
		if hi, err := host.Info(); err == nil {
			info.Hostname = hi.Hostname
			info.Platform = hi.Platform
			if hi.PlatformVersion != "" {
				info.Platform += " " + hi.PlatformVersion
			}
			if hi.KernelArch != "" {
				info.Arch = hi.KernelArch
			}
		} else {
			logger.Debugf("host info unavailable: %v", err)
		}
		s.host = info
	})
	return s.host
}
