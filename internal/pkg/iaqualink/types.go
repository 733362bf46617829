package iaqualink

type Command string

func (c Command) String() string {
	return string(c)
}

const (
	GetHome    Command = "get_home"
	GetDevices Command = "get_devices"
)

// screen is the top level key each command's payload is nested under.
var screens = map[Command]string{
	GetHome:    "home_screen",
	GetDevices: "devices_screen",
}

const (
	signInPath  = "/users/sign_in.json"
	devicesPath = "/devices.json"
	sessionPath = "/v1/mobile/session.json"
)

const (
	heaterOff     = "0"
	heaterHeating = "1"
	heaterEnabled = "3" // on, but not currently heating.
)
