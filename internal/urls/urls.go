package urls

// Brilliant Labs documentation for Frame

// FrameSetup covers pairing, charging and waking the Frame.
const FrameSetup = "https://docs.brilliant.xyz/frame/frame/"

// BluetoothSpec documents the Frame's GATT service and the control bytes
// it accepts.
const BluetoothSpec = "https://docs.brilliant.xyz/frame/building-apps-bluetooth-specs/"
