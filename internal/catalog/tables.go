package catalog

// schemas is the process-wide catalog, one schema per device type.
// Built once at init, read-only afterwards.
var schemas = map[DeviceType]*Schema{
	Camera:      cameraSchema(),
	Telescope:   telescopeSchema(),
	FilterWheel: filterWheelSchema(),
	Dome:        domeSchema(),
	Focuser:     focuserSchema(),
	Rotator:     rotatorSchema(),
}

func cameraSchema() *Schema {
	pairs := []ModePair{
		{Name: "gain", List: "gains", Min: "gainmin", Max: "gainmax"},
		{Name: "offset", List: "offsets", Min: "offsetmin", Max: "offsetmax"},
	}
	props := []Property{
		// Exposure state changes per tick while imaging.
		{Name: "camerastate", Direction: Read, Kind: Integer, Cadence: Fast},
		{Name: "imageready", Direction: Read, Kind: Bool, Cadence: Fast},
		{Name: "percentcompleted", Direction: Read, Kind: Integer, Cadence: Fast, Optional: true},
		{Name: "ccdtemperature", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},
		{Name: "cooleron", Direction: ReadWrite, Kind: Bool, Cadence: Fast, Optional: true, Param: "CoolerOn"},
		{Name: "coolerpower", Direction: Read, Kind: Number, Cadence: Fast, Optional: true, Flag: "cangetcoolerpower"},

		// Gain/offset controls and their mode auxiliaries.
		{Name: "gain", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "gains", Direction: Read, Kind: StringList, Cadence: Slow, Optional: true},
		{Name: "gainmin", Direction: Read, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "gainmax", Direction: Read, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "offset", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "offsets", Direction: Read, Kind: StringList, Cadence: Slow, Optional: true},
		{Name: "offsetmin", Direction: Read, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "offsetmax", Direction: Read, Kind: Integer, Cadence: Slow, Optional: true},

		// Frame geometry and readout configuration.
		{Name: "binx", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Param: "BinX"},
		{Name: "biny", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Param: "BinY"},
		{Name: "startx", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Param: "StartX"},
		{Name: "starty", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Param: "StartY"},
		{Name: "numx", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Param: "NumX"},
		{Name: "numy", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Param: "NumY"},
		{Name: "readoutmode", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Optional: true, Param: "ReadoutMode"},
		{Name: "readoutmodes", Direction: Read, Kind: StringList, Cadence: Slow, Optional: true},
		{Name: "fastreadout", Direction: ReadWrite, Kind: Bool, Cadence: Slow, Optional: true, Flag: "canfastreadout", Param: "FastReadout"},

		// Static sensor description.
		{Name: "sensortype", Direction: Read, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "sensorname", Direction: Read, Kind: String, Cadence: Slow, Optional: true},
		{Name: "cameraxsize", Direction: Read, Kind: Integer, Cadence: Slow},
		{Name: "cameraysize", Direction: Read, Kind: Integer, Cadence: Slow},
		{Name: "pixelsizex", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},
		{Name: "pixelsizey", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},
		{Name: "exposuremin", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},
		{Name: "exposuremax", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},

		// Cooling setpoint.
		{Name: "setccdtemperature", Direction: ReadWrite, Kind: Number, Cadence: Slow, Optional: true, Flag: "cansetccdtemperature", Param: "SetCCDTemperature"},

		// Capability flags.
		{Name: "cansetccdtemperature", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cangetcoolerpower", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canabortexposure", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canstopexposure", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canfastreadout", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canasymmetricbin", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canpulseguide", Direction: Read, Kind: Bool, Cadence: Slow},

		// Commands.
		{Name: "startexposure", Direction: Action, Kind: None},
		{Name: "stopexposure", Direction: Action, Kind: None, Flag: "canstopexposure"},
		{Name: "abortexposure", Direction: Action, Kind: None, Flag: "canabortexposure"},
		{Name: "pulseguide", Direction: Action, Kind: None, Flag: "canpulseguide"},
	}
	return newSchema(Camera, pairs, props)
}

func telescopeSchema() *Schema {
	props := []Property{
		// Pointing state, updated continuously while slewing or tracking.
		{Name: "rightascension", Direction: Read, Kind: Number, Cadence: Fast},
		{Name: "declination", Direction: Read, Kind: Number, Cadence: Fast},
		{Name: "altitude", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},
		{Name: "azimuth", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},
		{Name: "slewing", Direction: Read, Kind: Bool, Cadence: Fast},
		{Name: "tracking", Direction: ReadWrite, Kind: Bool, Cadence: Fast, Flag: "cansettracking"},
		{Name: "athome", Direction: Read, Kind: Bool, Cadence: Fast, Optional: true},
		{Name: "atpark", Direction: Read, Kind: Bool, Cadence: Fast, Optional: true},
		{Name: "sideofpier", Direction: Read, Kind: Integer, Cadence: Fast, Optional: true},

		// Site and mount configuration.
		{Name: "sitelatitude", Direction: ReadWrite, Kind: Number, Cadence: Slow, Optional: true, Param: "SiteLatitude"},
		{Name: "sitelongitude", Direction: ReadWrite, Kind: Number, Cadence: Slow, Optional: true, Param: "SiteLongitude"},
		{Name: "siteelevation", Direction: ReadWrite, Kind: Number, Cadence: Slow, Optional: true, Param: "SiteElevation"},
		{Name: "trackingrate", Direction: ReadWrite, Kind: Integer, Cadence: Slow, Optional: true, Param: "TrackingRate"},
		{Name: "equatorialsystem", Direction: Read, Kind: Integer, Cadence: Slow, Optional: true},
		{Name: "focallength", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},
		{Name: "aperturediameter", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},
		{Name: "utcdate", Direction: ReadWrite, Kind: String, Cadence: Slow, Optional: true, Param: "UTCDate"},

		// Capability flags.
		{Name: "canslew", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canslewasync", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canpark", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canunpark", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canfindhome", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cansettracking", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cansync", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canpulseguide", Direction: Read, Kind: Bool, Cadence: Slow},

		// Commands.
		{Name: "slewtocoordinatesasync", Direction: Action, Kind: None, Flag: "canslewasync"},
		{Name: "abortslew", Direction: Action, Kind: None},
		{Name: "park", Direction: Action, Kind: None, Flag: "canpark"},
		{Name: "unpark", Direction: Action, Kind: None, Flag: "canunpark"},
		{Name: "findhome", Direction: Action, Kind: None, Flag: "canfindhome"},
		{Name: "synctocoordinates", Direction: Action, Kind: None, Flag: "cansync"},
		{Name: "moveaxis", Direction: Action, Kind: None},
		{Name: "pulseguide", Direction: Action, Kind: None, Flag: "canpulseguide"},
	}
	return newSchema(Telescope, nil, props)
}

func filterWheelSchema() *Schema {
	props := []Property{
		// Position is -1 while the wheel is moving.
		{Name: "position", Direction: ReadWrite, Kind: Integer, Cadence: Fast},
		{Name: "names", Direction: Read, Kind: StringList, Cadence: Slow},
		{Name: "focusoffsets", Direction: Read, Kind: NumberList, Cadence: Slow, Optional: true},
	}
	return newSchema(FilterWheel, nil, props)
}

func domeSchema() *Schema {
	props := []Property{
		{Name: "azimuth", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},
		{Name: "altitude", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},
		{Name: "shutterstatus", Direction: Read, Kind: Integer, Cadence: Fast, Optional: true, Flag: "cansetshutter"},
		{Name: "slewing", Direction: Read, Kind: Bool, Cadence: Fast},
		{Name: "slaved", Direction: ReadWrite, Kind: Bool, Cadence: Fast, Optional: true, Flag: "canslave"},
		{Name: "athome", Direction: Read, Kind: Bool, Cadence: Fast, Optional: true},
		{Name: "atpark", Direction: Read, Kind: Bool, Cadence: Fast, Optional: true},

		// Capability flags.
		{Name: "canfindhome", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canpark", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cansetaltitude", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cansetazimuth", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cansetshutter", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "canslave", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "cansyncazimuth", Direction: Read, Kind: Bool, Cadence: Slow},

		// Commands.
		{Name: "openshutter", Direction: Action, Kind: None, Flag: "cansetshutter"},
		{Name: "closeshutter", Direction: Action, Kind: None, Flag: "cansetshutter"},
		{Name: "slewtoazimuth", Direction: Action, Kind: None, Flag: "cansetazimuth"},
		{Name: "synctoazimuth", Direction: Action, Kind: None, Flag: "cansyncazimuth"},
		{Name: "abortslew", Direction: Action, Kind: None},
		{Name: "park", Direction: Action, Kind: None, Flag: "canpark"},
		{Name: "findhome", Direction: Action, Kind: None, Flag: "canfindhome"},
	}
	return newSchema(Dome, nil, props)
}

func focuserSchema() *Schema {
	props := []Property{
		{Name: "position", Direction: Read, Kind: Integer, Cadence: Fast},
		{Name: "ismoving", Direction: Read, Kind: Bool, Cadence: Fast},
		{Name: "temperature", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},

		{Name: "absolute", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "maxstep", Direction: Read, Kind: Integer, Cadence: Slow},
		{Name: "maxincrement", Direction: Read, Kind: Integer, Cadence: Slow},
		{Name: "stepsize", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},
		{Name: "tempcompavailable", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "tempcomp", Direction: ReadWrite, Kind: Bool, Cadence: Slow, Optional: true, Flag: "tempcompavailable", Param: "TempComp"},

		// Commands.
		{Name: "move", Direction: Action, Kind: None},
		{Name: "halt", Direction: Action, Kind: None},
	}
	return newSchema(Focuser, nil, props)
}

func rotatorSchema() *Schema {
	props := []Property{
		{Name: "position", Direction: Read, Kind: Number, Cadence: Fast},
		{Name: "mechanicalposition", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},
		{Name: "ismoving", Direction: Read, Kind: Bool, Cadence: Fast},
		{Name: "targetposition", Direction: Read, Kind: Number, Cadence: Fast, Optional: true},

		{Name: "canreverse", Direction: Read, Kind: Bool, Cadence: Slow},
		{Name: "reverse", Direction: ReadWrite, Kind: Bool, Cadence: Slow, Optional: true, Flag: "canreverse"},
		{Name: "stepsize", Direction: Read, Kind: Number, Cadence: Slow, Optional: true},

		// Commands.
		{Name: "move", Direction: Action, Kind: None},
		{Name: "moveabsolute", Direction: Action, Kind: None},
		{Name: "movemechanical", Direction: Action, Kind: None},
		{Name: "halt", Direction: Action, Kind: None},
		{Name: "sync", Direction: Action, Kind: None},
	}
	return newSchema(Rotator, nil, props)
}
